package middlewares

import (
	"net/http"

	"github.com/PedroPPVM/Intelectus-Api/models"
	"github.com/PedroPPVM/Intelectus-Api/utils"
	"github.com/gin-gonic/gin"
)

// CompanyMiddleware resolves the acting company from the X-Company-Id header
// and verifies the authenticated user is a member of it. Superusers may act
// on any company. Routes that do not need a company scope skip this.
func CompanyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyId := c.Request.Header.Get("X-Company-Id")
		if companyId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-Company-Id header"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		isSuperuser, _ := utils.GetIsSuperuserFromContext(ctx)
		if !isSuperuser {
			userId, ok := utils.GetUserIdFromContext(ctx)
			if !ok {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}
			member, err := models.IsCompanyMember(ctx, companyId, userId)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "membership lookup failed"})
				c.Abort()
				return
			}
			if !member {
				c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this company"})
				c.Abort()
				return
			}
		}

		c.Request = c.Request.WithContext(utils.SetCompanyIdInContext(ctx, companyId))
		c.Next()
	}
}
