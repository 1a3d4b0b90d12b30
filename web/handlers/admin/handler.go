package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"axiapac.com/punchclock/model"
	"axiapac.com/punchclock/report"
	"axiapac.com/punchclock/store"
	"axiapac.com/punchclock/utils"
	"axiapac.com/punchclock/web/common"
	"axiapac.com/punchclock/web/metrics"
)

type Endpoint struct {
	store   *store.RecordStore
	metrics *metrics.Metrics
}

func Register(r *gin.RouterGroup, rs *store.RecordStore, m *metrics.Metrics) {
	endpoint := &Endpoint{store: rs, metrics: m}
	r.GET("/employees", endpoint.ListEmployees)
	r.PUT("/employees/:id", endpoint.SaveEmployee)

	r.GET("/records", endpoint.ListRecords)
	r.GET("/records/unsynced", endpoint.ListUnsynced)
	r.POST("/records/:id/synced", endpoint.MarkSynced)
	r.GET("/records/export", endpoint.Export)

	r.DELETE("/data", endpoint.ClearAll)
}

func (ep *Endpoint) ListEmployees(c *gin.Context) {
	employees, err := ep.store.Employees(c.Request.Context())
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	public := utils.Map(employees, model.Employee.Public)
	c.JSON(http.StatusOK, common.NewSearchResponse(public, int64(len(public))))
}

type EmployeeDTO struct {
	PhoneNumber string `json:"phoneNumber" binding:"required,numeric"`
	Name        string `json:"name" binding:"required"`
	Pin         string `json:"pin" binding:"required,numeric,len=4"`
}

func (ep *Endpoint) SaveEmployee(c *gin.Context) {
	var dto EmployeeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	emp := model.Employee{ID: c.Param("id"), PhoneNumber: dto.PhoneNumber, Name: dto.Name, Pin: dto.Pin}
	if err := ep.store.SaveEmployee(c.Request.Context(), emp); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(emp.Public()))
}

type RecordsQuery struct {
	EmployeeID string `form:"employeeId"`
	Date       string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	Format     string `form:"format" binding:"omitempty,oneof=csv xlsx"`
}

func (q RecordsQuery) criteria(loc *time.Location) (report.Criteria, error) {
	c := report.Criteria{EmployeeID: q.EmployeeID}
	if q.Date != "" {
		d, err := utils.ParseDate(q.Date, loc)
		if err != nil {
			return c, err
		}
		c.Date = &d
	}
	return c, nil
}

func (ep *Endpoint) buildReport(c *gin.Context) (*RecordsQuery, *report.Report, bool) {
	var q RecordsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return nil, nil, false
	}
	criteria, err := q.criteria(ep.store.Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error()))
		return nil, nil, false
	}
	r, err := report.Build(c.Request.Context(), ep.store, criteria)
	if err != nil {
		common.AbortWithError(c, err)
		return nil, nil, false
	}
	return &q, r, true
}

// ListRecords returns the filtered records newest first with the summary counts.
func (ep *Endpoint) ListRecords(c *gin.Context) {
	_, r, ok := ep.buildReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, common.NewSearchResponse(r.Records, int64(len(r.Records))).WithStats(r.Stats))
}

func (ep *Endpoint) ListUnsynced(c *gin.Context) {
	records, err := ep.store.UnsyncedRecords(c.Request.Context())
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSearchResponse(records, int64(len(records))))
}

func (ep *Endpoint) MarkSynced(c *gin.Context) {
	if err := ep.store.MarkSynced(c.Request.Context(), c.Param("id")); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{}))
}

func (ep *Endpoint) Export(c *gin.Context) {
	q, r, ok := ep.buildReport(c)
	if !ok {
		return
	}
	format, err := report.ParseFormat(q.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error()))
		return
	}

	artifact, err := r.Export(format)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	ep.metrics.Export(string(format))

	c.Header("Content-Disposition", `attachment; filename="`+artifact.Name+`"`)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func (ep *Endpoint) ClearAll(c *gin.Context) {
	if err := ep.store.ClearAll(c.Request.Context()); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{}))
}
