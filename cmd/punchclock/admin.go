package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"axiapac.com/punchclock/model"
	"axiapac.com/punchclock/report"
	"axiapac.com/punchclock/utils"
)

func seedCmd(flags *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create employees from a CSV file, or the demo employee",
		Long: `Seed saves employees from a CSV file with the header id,phoneNumber,name,pin.
Without --file the demo employee Ramesh (9876543210 / 1234) is created.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := open(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			var employees []model.Employee
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				if employees, err = readEmployees(f); err != nil {
					return err
				}
			}
			return a.Seed(ctx, employees)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file of employees")
	return cmd
}

// employeeRow holds the same rules the admin API binds employees with.
type employeeRow struct {
	ID          string `validate:"required"`
	PhoneNumber string `validate:"required,numeric"`
	Name        string `validate:"required"`
	Pin         string `validate:"required,numeric,len=4"`
}

// readEmployees parses CSV rows with a header naming the id, phoneNumber, name and pin columns.
func readEmployees(r io.Reader) ([]model.Employee, error) {
	rows, err := utils.ParseCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read employees: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("employee file is empty")
	}

	columns := map[string]int{}
	for i, name := range rows[0] {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"id", "phoneNumber", "name", "pin"} {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("employee file has no %q column", name)
		}
	}

	validate := validator.New()
	employees := make([]model.Employee, 0, len(rows)-1)
	for i, row := range rows[1:] {
		e := employeeRow{
			ID:          strings.TrimSpace(row[columns["id"]]),
			PhoneNumber: strings.TrimSpace(row[columns["phoneNumber"]]),
			Name:        strings.TrimSpace(row[columns["name"]]),
			Pin:         strings.TrimSpace(row[columns["pin"]]),
		}
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("employee file line %d: %w", i+2, err)
		}
		employees = append(employees, model.Employee(e))
	}
	return employees, nil
}

func exportCmd(flags *globalFlags) *cobra.Command {
	var (
		date       string
		employeeID string
		format     string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export attendance records as CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := open(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if format == "" {
				format = a.Config.Export.Format
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			c := report.Criteria{EmployeeID: employeeID}
			if date != "" {
				d, err := parseDay(date, a.Config.Location())
				if err != nil {
					return err
				}
				c.Date = &d
			}

			var sinks []report.Sink
			if outDir != "" {
				sinks = append(sinks, report.DirSink{Dir: outDir})
			}
			artifact, locations, err := a.Export(ctx, c, f, sinks...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records (%d in, %d unsynced)\n",
				artifact.Name, artifact.Stats.Records, artifact.Stats.PunchIns, artifact.Stats.Unsynced)
			for _, l := range locations {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Calendar date YYYY-MM-DD, or today/yesterday")
	cmd.Flags().StringVar(&employeeID, "employee", "all", "Employee id, or all")
	cmd.Flags().StringVar(&format, "format", "", "csv or xlsx (default export.format)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write to instead of the configured destinations")
	return cmd
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	today := utils.StartOfDay(time.Now().In(loc))
	switch s {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	return utils.ParseDate(s, loc)
}

func clearCmd(flags *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all employees, records and the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete all data without --yes")
			}
			ctx := cmd.Context()
			a, err := open(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Store.ClearAll(ctx); err != nil {
				return err
			}
			a.Logger.Info("all data cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting all data")
	return cmd
}

func migrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the storage schema (mysql driver)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := open(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Migrate(ctx)
		},
	}
}

func loginCmd(flags *globalFlags) *cobra.Command {
	var (
		phone string
		pin   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log an employee in on this device and print the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := open(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			session, err := a.Auth.Login(ctx, phone, pin)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Employee phone number")
	cmd.Flags().StringVar(&pin, "pin", "", "Employee PIN")
	cmd.MarkFlagRequired("phone")
	cmd.MarkFlagRequired("pin")
	return cmd
}
