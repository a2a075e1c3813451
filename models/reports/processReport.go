package reports

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/models"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const processSheet = "Processos"

// BuildProcessListFile renders the company's process list as a spreadsheet.
// The filter is the same one the JSON listing endpoint accepts.
func BuildProcessListFile(ctx context.Context, filter *models.ProcessFilter) (*excelize.File, error) {

	data, err := models.GetProcesses(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(processSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	// Add headers
	f.SetCellValue(processSheet, "A1", "Numero")
	f.SetCellValue(processSheet, "B1", "Tipo")
	f.SetCellValue(processSheet, "C1", "Titulo")
	f.SetCellValue(processSheet, "D1", "Status")
	f.SetCellValue(processSheet, "E1", "Depositante")
	f.SetCellValue(processSheet, "F1", "Procurador")
	f.SetCellValue(processSheet, "G1", "Deposito")
	f.SetCellValue(processSheet, "H1", "Editado")

	// Add data
	for i, p := range data {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(processSheet, "A"+row, p.ProcessNumber)
		f.SetCellValue(processSheet, "B"+row, string(p.ProcessType))
		f.SetCellValue(processSheet, "C"+row, p.Title)
		f.SetCellValue(processSheet, "D"+row, p.Status)
		f.SetCellValue(processSheet, "E"+row, p.Depositor)
		f.SetCellValue(processSheet, "F"+row, p.Attorney)
		if p.DepositDate != nil {
			f.SetCellValue(processSheet, "G"+row, p.DepositDate.Format("02/01/2006"))
		}
		f.SetCellValue(processSheet, "H"+row, p.IsEdited != nil && *p.IsEdited)
	}

	return f, nil
}

// ExportProcessesExcel streams the process list as an xlsx download.
func ExportProcessesExcel() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.ProcessFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
			return
		}

		f, err := BuildProcessListFile(c.Request.Context(), &filter)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		filename := fmt.Sprintf("processos_%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := f.Write(c.Writer); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	}
}
