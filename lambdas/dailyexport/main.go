package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"axiapac.com/punchclock/app"
	"axiapac.com/punchclock/config"
	"axiapac.com/punchclock/report"
	"axiapac.com/punchclock/utils"
	"axiapac.com/punchclock/web/common"
)

// ExportEvent is sent by the schedule. Every field is optional.
type ExportEvent struct {
	Date       common.DateOnly `json:"date"`
	Format     string          `json:"format"`
	EmployeeID string          `json:"employeeId"`
}

type ExportResult struct {
	Date      string       `json:"date"`
	Stats     report.Stats `json:"stats"`
	Locations []string     `json:"locations"`
}

// criteria resolves the event against now. Without a date the previous local day is exported.
func (e ExportEvent) criteria(now time.Time, loc *time.Location) report.Criteria {
	c := report.Criteria{EmployeeID: e.EmployeeID}
	if d := e.Date.In(loc); d != nil {
		c.Date = d
	} else {
		yesterday := utils.StartOfDay(now.In(loc)).AddDate(0, 0, -1)
		c.Date = &yesterday
	}
	return c
}

func Export(ctx context.Context, a *app.App, event ExportEvent, now time.Time) (*ExportResult, error) {
	format := event.Format
	if format == "" {
		format = a.Config.Export.Format
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	c := event.criteria(now, a.Config.Location())
	a.Logger.Info("export event", "date", c.DateLabel(), "employeeId", c.EmployeeID, "format", string(f))
	artifact, locations, err := a.Export(ctx, c, f)
	if err != nil {
		return nil, err
	}
	return &ExportResult{Date: artifact.DateLabel, Stats: artifact.Stats, Locations: locations}, nil
}

func HandleRequest(ctx context.Context, event ExportEvent) (*ExportResult, error) {
	cfg, err := config.Load(ctx, os.Getenv("PUNCHCLOCK_CONFIG"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a, err := app.New(ctx, cfg, cfg.Logger())
	if err != nil {
		return nil, err
	}
	defer a.Close()

	return Export(ctx, a, event, time.Now())
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(HandleRequest)
		return
	}

	result, err := HandleRequest(context.Background(), ExportEvent{})
	if err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
	slog.Info("export finished", "date", result.Date, "records", result.Stats.Records, "locations", result.Locations)
}
