package gateway

import (
	"net/http"

	"github.com/example/reshoe/pkg/models"
	"github.com/gin-gonic/gin"
)

func (g *Gateway) listOrders(c *gin.Context) {
	page, limit := pageQuery(c, 10)
	status := models.OrderStatus(c.Query("status"))

	list, total, err := g.orders.List(c.Request.Context(), currentPrincipal(c), status, page, limit)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders":     list,
		"pagination": pagination(page, limit, total),
	})
}

func (g *Gateway) getOrder(c *gin.Context) {
	order, err := g.orders.Get(c.Request.Context(), currentPrincipal(c), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := g.orders.UpdateStatus(c.Request.Context(), currentPrincipal(c),
		c.Param("id"), models.OrderStatus(req.Status))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order status updated", "order": order})
}
