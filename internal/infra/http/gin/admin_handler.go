package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"rentverse/internal/app/commands"
	ListingApp "rentverse/internal/app/handlers/listings"
	PolicyApp "rentverse/internal/app/handlers/policy"
	"rentverse/internal/app/queries"
)

const adminRole = "admin"

type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h AdminHandler) PendingListings(c *gin.Context) {
	if _, ok := requireRole(c, adminRole); !ok {
		return
	}
	q := ListingApp.PendingListingsQuery{
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	}
	result, err := queries.Ask[ListingApp.PendingListingsQuery, *ListingApp.PendingListingsResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reviewListingRequest struct {
	Notes string `json:"notes"`
}

func (h AdminHandler) ApproveListing(c *gin.Context) {
	user, ok := requireRole(c, adminRole)
	if !ok {
		return
	}
	var req reviewListingRequest
	_ = c.ShouldBindJSON(&req)
	cmd := ListingApp.ApproveListingCommand{
		PropertyID: c.Param("id"),
		ReviewerID: user.ID,
		Notes:      req.Notes,
	}
	result, err := commands.Dispatch[ListingApp.ApproveListingCommand, *ListingApp.ReviewListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) RejectListing(c *gin.Context) {
	user, ok := requireRole(c, adminRole)
	if !ok {
		return
	}
	var req reviewListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := ListingApp.RejectListingCommand{
		PropertyID: c.Param("id"),
		ReviewerID: user.ID,
		Notes:      req.Notes,
	}
	result, err := commands.Dispatch[ListingApp.RejectListingCommand, *ListingApp.ReviewListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) GetPolicy(c *gin.Context) {
	if _, ok := requireRole(c, adminRole); !ok {
		return
	}
	result, err := queries.Ask[PolicyApp.GetPolicyQuery, *PolicyApp.PolicyState](c.Request.Context(), h.Queries, PolicyApp.GetPolicyQuery{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type togglePolicyRequest struct {
	Enabled bool `json:"enabled"`
}

func (h AdminHandler) TogglePolicy(c *gin.Context) {
	user, ok := requireRole(c, adminRole)
	if !ok {
		return
	}
	var req togglePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := PolicyApp.TogglePolicyCommand{Enabled: req.Enabled, AdminID: user.ID}
	result, err := commands.Dispatch[PolicyApp.TogglePolicyCommand, *PolicyApp.PolicyState](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) RepairApprovals(c *gin.Context) {
	user, ok := requireRole(c, adminRole)
	if !ok {
		return
	}
	cmd := ListingApp.RepairApprovalsCommand{AdminID: user.ID}
	result, err := commands.Dispatch[ListingApp.RepairApprovalsCommand, *ListingApp.RepairApprovalsResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

var _ AdminHTTP = AdminHandler{}
