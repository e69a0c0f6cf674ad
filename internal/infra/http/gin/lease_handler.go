package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rentverse/internal/app/commands"
	LeaseApp "rentverse/internal/app/handlers/lease"
	"rentverse/internal/app/queries"
)

type LeaseHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type requestLeaseRequest struct {
	PropertyID string    `json:"property_id"`
	Start      time.Time `json:"start_date"`
	End        time.Time `json:"end_date"`
	RentAmount int64     `json:"rent_amount"`
	Currency   string    `json:"currency"`
	Notes      string    `json:"notes"`
}

func (h LeaseHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req requestLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := LeaseApp.RequestLeaseCommand{
		CommandID:       generateCommandID(),
		PropertyID:      req.PropertyID,
		TenantID:        user.ID,
		Start:           req.Start,
		End:             req.End,
		RentAmount:      req.RentAmount,
		Currency:        req.Currency,
		Notes:           req.Notes,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[LeaseApp.RequestLeaseCommand, *LeaseApp.RequestLeaseResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h LeaseHandler) Approve(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := LeaseApp.ApproveLeaseCommand{
		LeaseID: c.Param("id"),
		OwnerID: user.ID,
	}
	result, err := commands.Dispatch[LeaseApp.ApproveLeaseCommand, *LeaseApp.DecideLeaseResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type rejectLeaseRequest struct {
	Reason string `json:"reason"`
}

func (h LeaseHandler) Reject(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req rejectLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := LeaseApp.RejectLeaseCommand{
		LeaseID: c.Param("id"),
		OwnerID: user.ID,
		Reason:  req.Reason,
	}
	result, err := commands.Dispatch[LeaseApp.RejectLeaseCommand, *LeaseApp.DecideLeaseResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h LeaseHandler) BookedPeriods(c *gin.Context) {
	q := LeaseApp.BookedPeriodsQuery{PropertyID: c.Param("id")}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		q.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		q.To = t
	}
	result, err := queries.Ask[LeaseApp.BookedPeriodsQuery, *LeaseApp.BookedPeriodsResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h LeaseHandler) Mine(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := LeaseApp.MyLeasesQuery{TenantID: user.ID}
	result, err := queries.Ask[LeaseApp.MyLeasesQuery, *LeaseApp.LeaseListResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h LeaseHandler) PropertyLeases(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := LeaseApp.PropertyLeasesQuery{PropertyID: c.Param("id"), OwnerID: user.ID}
	result, err := queries.Ask[LeaseApp.PropertyLeasesQuery, *LeaseApp.LeaseListResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ LeaseHTTP = LeaseHandler{}
