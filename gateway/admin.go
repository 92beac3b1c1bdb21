package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/reshoe/pkg/models"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

func (g *Gateway) listTransactions(c *gin.Context) {
	page, limit := pageQuery(c, 10)
	payoutStatus := models.PayoutStatus(c.Query("payoutStatus"))

	result, err := g.ledger.List(c.Request.Context(), currentPrincipal(c), payoutStatus, page, limit)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": result.Transactions,
		"totals":       result.Totals,
		"pagination":   pagination(page, limit, result.Total),
	})
}

func (g *Gateway) getSettings(c *gin.Context) {
	settings, err := g.settings.GetOrCreate(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

type updateSettingsRequest struct {
	CommissionRate *float64 `json:"commission_rate" binding:"omitempty,gte=0,lte=100"`
	PlatformName   *string  `json:"platform_name"`
	ContactEmail   *string  `json:"contact_email" binding:"omitempty,email"`
}

func (g *Gateway) updateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set := bson.M{}
	if req.CommissionRate != nil {
		set["commission_rate"] = *req.CommissionRate
	}
	if req.PlatformName != nil {
		set["platform_name"] = *req.PlatformName
	}
	if req.ContactEmail != nil {
		set["contact_email"] = *req.ContactEmail
	}
	if len(set) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	settings, err := g.settings.Update(c.Request.Context(), set)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "settings updated", "settings": settings})
}

func (g *Gateway) listUsers(c *gin.Context) {
	page, limit := pageQuery(c, 20)
	role := models.Role(c.Query("role"))

	users, total, err := g.analytics.Users(c.Request.Context(), currentPrincipal(c), role, page, limit)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"pagination": pagination(page, limit, total),
	})
}

func (g *Gateway) getAnalytics(c *gin.Context) {
	refresh := c.Query("refresh") == "true"
	dashboard, err := g.analytics.Dashboard(c.Request.Context(), currentPrincipal(c), refresh)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analytics": dashboard})
}

// reconcileSettlements reports sold listings with no matching order,
// the partial-settlement inconsistency window surfaced as a health
// check.
func (g *Gateway) reconcileSettlements(c *gin.Context) {
	ids, err := g.engine.Reconcile(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	status := "consistent"
	if len(ids) > 0 {
		status = "inconsistent"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "orphaned_listings": ids})
}

func (g *Gateway) getAuditTrail(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	logs, err := g.mongo.GetAuditLogs(c.Request.Context(), c.Param("entityId"), limit)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}
