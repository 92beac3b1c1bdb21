package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/reshoe/pkg/catalog"
	"github.com/example/reshoe/pkg/models"
	"github.com/example/reshoe/pkg/repository"
	"github.com/gin-gonic/gin"
)

// pageQuery parses and clamps pagination, so a limit of 0 (or garbage)
// can never reach the skip arithmetic or the pagination divisor.
func pageQuery(c *gin.Context, defaultLimit int64) (page, limit int64) {
	page, _ = strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ = strconv.ParseInt(c.Query("limit"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit
}

func listingFilterFromQuery(c *gin.Context) repository.ListingFilter {
	page, limit := pageQuery(c, 12)
	size, _ := strconv.ParseFloat(c.Query("size"), 64)
	minPrice, _ := strconv.ParseInt(c.Query("minPrice"), 10, 64)
	maxPrice, _ := strconv.ParseInt(c.Query("maxPrice"), 10, 64)

	return repository.ListingFilter{
		Category:  models.Category(c.Query("category")),
		Brand:     c.Query("brand"),
		Condition: models.Condition(c.Query("condition")),
		Size:      size,
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		Search:    c.Query("search"),
		Sort:      c.Query("sort"),
		Page:      page,
		Limit:     limit,
	}
}

func pagination(page, limit, total int64) gin.H {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return gin.H{"page": page, "limit": limit, "total": total, "pages": pages}
}

func (g *Gateway) browseListings(c *gin.Context) {
	f := listingFilterFromQuery(c)
	listings, total, err := g.catalog.Browse(c.Request.Context(), f)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listings":   listings,
		"pagination": pagination(f.Page, f.Limit, total),
	})
}

func (g *Gateway) getListing(c *gin.Context) {
	listing, err := g.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

func (g *Gateway) createListing(c *gin.Context) {
	var in catalog.SubmitListingInput
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	listing, err := g.catalog.Submit(c.Request.Context(), currentPrincipal(c), in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "listing created", "listing": listing})
}

func (g *Gateway) updateListing(c *gin.Context) {
	var in catalog.EditListingInput
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	listing, err := g.catalog.Edit(c.Request.Context(), currentPrincipal(c), c.Param("id"), in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "listing updated", "listing": listing})
}

func (g *Gateway) deleteListing(c *gin.Context) {
	if err := g.catalog.Delete(c.Request.Context(), currentPrincipal(c), c.Param("id")); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "listing deleted"})
}

func (g *Gateway) myListings(c *gin.Context) {
	f := listingFilterFromQuery(c)
	f.Status = models.ListingStatus(c.Query("status"))
	listings, total, err := g.catalog.ListMine(c.Request.Context(), currentPrincipal(c), f)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listings":   listings,
		"pagination": pagination(f.Page, f.Limit, total),
	})
}

func (g *Gateway) adminListings(c *gin.Context) {
	f := listingFilterFromQuery(c)
	f.Status = models.ListingStatus(c.Query("status"))
	listings, total, err := g.catalog.AdminList(c.Request.Context(), currentPrincipal(c), f)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listings":   listings,
		"pagination": pagination(f.Page, f.Limit, total),
	})
}

type reviewRequest struct {
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

func (g *Gateway) reviewListing(c *gin.Context) {
	var req reviewRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	listing, err := g.catalog.Review(c.Request.Context(), currentPrincipal(c),
		c.Param("id"), catalog.ReviewDecision(req.Action), req.Reason)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "listing " + string(listing.Status), "listing": listing})
}
