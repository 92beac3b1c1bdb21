package gateway

import (
	"net/http"

	"github.com/example/reshoe/pkg/settlement"
	"github.com/gin-gonic/gin"
)

type initiateChargeRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
}

func (g *Gateway) initiateCharge(c *gin.Context) {
	var req initiateChargeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	handle, err := g.bridge.InitiateCharge(c.Request.Context(), currentPrincipal(c).UserID, req.ListingID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"charge": handle})
}

type confirmChargeRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

func (g *Gateway) confirmCharge(c *gin.Context) {
	var req confirmChargeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conf, err := g.bridge.ConfirmCharge(c.Request.Context(),
		req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment verified", "confirmation": conf})
}

type checkoutRequest struct {
	ListingID        string                          `json:"listing_id" binding:"required"`
	GatewayOrderID   string                          `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string                          `json:"gateway_payment_id" binding:"required"`
	Signature        string                          `json:"signature" binding:"required"`
	ShippingAddress  settlement.ShippingAddressInput `json:"shipping_address" binding:"required"`
}

// checkout verifies the gateway's signed confirmation, then hands the
// confirmed payment to the settlement engine.
func (g *Gateway) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conf, err := g.bridge.ConfirmCharge(c.Request.Context(),
		req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		g.fail(c, err)
		return
	}

	order, err := g.engine.SettlePurchase(c.Request.Context(),
		currentPrincipal(c).UserID, req.ListingID, conf.PaymentID, req.ShippingAddress)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "order created", "order": order})
}
