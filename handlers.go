package main

import (
	"net/http"
	"strings"

	"github.com/PedroPPVM/Intelectus-Api/models"
	"github.com/PedroPPVM/Intelectus-Api/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func bindError(c *gin.Context, err error) {
	if verr, ok := err.(validator.ValidationErrors); ok {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(verr)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// --- auth ---

func registerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.Login
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		info, err := models.Authenticate(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": ok})
	}
}

func meHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())
		user, err := models.GetUser(c.Request.Context(), userId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		companies, err := models.GetUserCompanies(c.Request.Context(), userId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "companies": companies})
	}
}

func changePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.ChangePasswordInput
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		ok, err := models.ChangePassword(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": ok})
	}
}

func updateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		user, err := models.UpdateUser(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// --- companies ---

func createCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCompany
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		company, err := models.CreateCompany(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, company)
	}
}

func listCompaniesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())
		companies, err := models.GetUserCompanies(c.Request.Context(), userId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": companies})
	}
}

func getCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		company, err := models.GetCompany(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, company)
	}
}

func updateCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCompany
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		company, err := models.UpdateCompany(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, company)
	}
}

// --- memberships ---

func listCompanyMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		members, err := models.GetCompanyMembers(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": members})
	}
}

func addCompanyMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewMembership
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		input.CompanyId = c.Param("id")
		membership, err := models.CreateMembership(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, membership)
	}
}

func updateCompanyMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.UpdateMembershipInput
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		membership, err := models.UpdateMembership(c.Request.Context(), c.Param("id"), c.Param("userId"), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, membership)
	}
}

// --- processes ---

func createProcessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProcess
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		process, err := models.CreateProcess(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, process)
	}
}

func listProcessesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.ProcessFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
			return
		}
		if filter.ProcessType != nil && !filter.ProcessType.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid process type"})
			return
		}
		processes, err := models.GetProcesses(c.Request.Context(), &filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": processes})
	}
}

func getProcessByNumberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		process, err := models.GetProcessByNumber(c.Request.Context(), c.Param("number"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, process)
	}
}

func getProcessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		process, err := models.GetProcess(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, process)
	}
}

func updateProcessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProcess
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		process, err := models.UpdateProcess(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			if strings.Contains(err.Error(), "not found") {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, process)
	}
}

func deleteProcessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		process, err := models.DeleteProcess(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, process)
	}
}

// --- magazines ---

func listMagazinesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var processType *models.ProcessType
		if raw := strings.TrimSpace(c.Query("process_type")); raw != "" {
			t := models.ProcessType(strings.ToUpper(raw))
			if !t.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid process type"})
				return
			}
			processType = &t
		}
		magazines, err := models.GetMagazines(c.Request.Context(), processType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": magazines})
	}
}

// --- alerts ---

func listAlertsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.AlertFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
			return
		}
		alerts, err := models.GetAlerts(c.Request.Context(), &filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": alerts})
	}
}

func markAlertReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		alert, err := models.MarkAlertRead(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, alert)
	}
}

func dismissAlertHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		alert, err := models.DismissAlert(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, alert)
	}
}

func unreadAlertCountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := models.CountUnreadAlerts(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}
