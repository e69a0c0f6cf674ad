package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentverse/internal/app/commands"
	ListingApp "rentverse/internal/app/handlers/listings"
)

type ListingHandler struct {
	Commands commands.Bus
}

type submitListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	RentAmount  int64  `json:"rent_amount"`
	Currency    string `json:"currency"`
	IsAvailable bool   `json:"is_available"`
}

func (h ListingHandler) Submit(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req submitListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := ListingApp.SubmitListingCommand{
		CommandID:       generateCommandID(),
		OwnerID:         user.ID,
		Title:           req.Title,
		Description:     req.Description,
		RentAmount:      req.RentAmount,
		Currency:        req.Currency,
		IsAvailable:     req.IsAvailable,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[ListingApp.SubmitListingCommand, *ListingApp.SubmitListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type setAvailabilityRequest struct {
	Available bool `json:"available"`
}

func (h ListingHandler) SetAvailability(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req setAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := ListingApp.SetAvailabilityCommand{
		PropertyID: c.Param("id"),
		OwnerID:    user.ID,
		Available:  req.Available,
	}
	result, err := commands.Dispatch[ListingApp.SetAvailabilityCommand, *ListingApp.ManageListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Archive(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := ListingApp.ArchiveListingCommand{
		PropertyID: c.Param("id"),
		OwnerID:    user.ID,
	}
	result, err := commands.Dispatch[ListingApp.ArchiveListingCommand, *ListingApp.ManageListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}
