package gateway

import (
	"net/http"

	"github.com/example/reshoe/pkg/reviews"
	"github.com/gin-gonic/gin"
)

func (g *Gateway) listListingReviews(c *gin.Context) {
	page, limit := pageQuery(c, 20)
	list, total, err := g.reviews.ListForListing(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reviews":    list,
		"pagination": pagination(page, limit, total),
	})
}

func (g *Gateway) createReview(c *gin.Context) {
	var in reviews.CreateReviewInput
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := g.reviews.Create(c.Request.Context(), currentPrincipal(c), in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "review recorded", "review": review})
}
