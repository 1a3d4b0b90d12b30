package attendance

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"axiapac.com/punchclock/camera"
	"axiapac.com/punchclock/geo"
	"axiapac.com/punchclock/punch"
	"axiapac.com/punchclock/utils"
	"axiapac.com/punchclock/web/common"
	"axiapac.com/punchclock/web/handlers"
	"axiapac.com/punchclock/web/metrics"
	"axiapac.com/punchclock/web/middlewares"
)

type Endpoint struct {
	machine   *punch.Machine
	metrics   *metrics.Metrics
	maxUpload int64
}

// Register adds the punch routes. Every route needs an authenticated employee.
func Register(r *gin.RouterGroup, machine *punch.Machine, m *metrics.Metrics, maxUpload int64) {
	endpoint := &Endpoint{machine: machine, metrics: m, maxUpload: maxUpload}
	r.GET("/punch/status", endpoint.Status)
	r.POST("/punch", endpoint.Punch)
}

func (ep *Endpoint) Status(c *gin.Context) {
	emp := middlewares.CurrentEmployee(c)
	status, err := ep.machine.Status(c.Request.Context(), emp.ID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(status))
}

type PunchForm struct {
	Latitude  *float64 `form:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `form:"longitude" binding:"omitempty,min=-180,max=180"`
	Address   string   `form:"address"`
	Accuracy  float64  `form:"accuracy" binding:"omitempty,min=0"`
	// CapturedAt is when the device took the photo and the fix, ISO 8601.
	CapturedAt string `form:"capturedAt"`
}

func (f PunchForm) capturedAt() (time.Time, error) {
	if f.CapturedAt == "" {
		return time.Now(), nil
	}
	t, err := utils.ParseISOTime(f.CapturedAt)
	if err != nil {
		return time.Time{}, err
	}
	return *t, nil
}

func (f PunchForm) fix(at time.Time) *geo.Fix {
	if f.Latitude == nil || f.Longitude == nil {
		return nil
	}
	return &geo.Fix{
		Latitude:  *f.Latitude,
		Longitude: *f.Longitude,
		Address:   f.Address,
		Accuracy:  f.Accuracy,
		Timestamp: at,
	}
}

// Punch records the next punch of the logged in employee from a photo and the device location.
func (ep *Endpoint) Punch(c *gin.Context) {
	emp := middlewares.CurrentEmployee(c)

	name, data, err := handlers.ReadImageUpload(c, "photo", ep.maxUpload)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error()))
		return
	}

	var form PunchForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}
	if (form.Latitude == nil) != (form.Longitude == nil) {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("latitude and longitude must be sent together"))
		return
	}
	capturedAt, err := form.capturedAt()
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error()))
		return
	}

	photo, err := camera.FromUpload(name, data)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	photo.Timestamp = capturedAt

	ctx := c.Request.Context()
	record, err := ep.machine.Punch(ctx, *emp, photo, form.fix(capturedAt))
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	ep.metrics.Punch(string(record.PunchType))

	status, err := ep.machine.Status(ctx, emp.ID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(gin.H{
		"record": record,
		"status": status,
	}))
}
