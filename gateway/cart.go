package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (g *Gateway) getCart(c *gin.Context) {
	view, err := g.cart.Get(c.Request.Context(), currentPrincipal(c).UserID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

type addToCartRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
}

func (g *Gateway) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := g.cart.Add(c.Request.Context(), currentPrincipal(c).UserID, req.ListingID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item added to cart", "cart": view})
}

func (g *Gateway) removeFromCart(c *gin.Context) {
	view, err := g.cart.Remove(c.Request.Context(), currentPrincipal(c).UserID, c.Param("listingId"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item removed from cart", "cart": view})
}
