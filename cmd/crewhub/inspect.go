package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gosuda/crewhub/internal/allocation"
	"github.com/gosuda/crewhub/internal/domain"
)

func availabilityCmd() *cobra.Command {
	var start, end, exclude string
	cmd := &cobra.Command{
		Use:   "availability <worker-id>",
		Short: "Show what blocks a worker during a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workerID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("worker id: %w", err)
			}
			from, err := time.Parse(time.DateOnly, start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			to, err := time.Parse(time.DateOnly, end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			var excludeID uuid.UUID
			if exclude != "" {
				if excludeID, err = uuid.Parse(exclude); err != nil {
					return fmt.Errorf("--exclude-project: %w", err)
				}
			}

			return withEngine(cmd.Context(), func(ctx context.Context, e *allocation.Engine) error {
				ok, conflicts, err := e.Availability.IsAvailable(ctx, workerID, from, to, excludeID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"available": ok, "conflicts": conflicts})
				}
				if ok {
					fmt.Printf("worker %s is free from %s to %s\n", workerID, start, end)
					return nil
				}
				renderConflicts(conflicts)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&exclude, "exclude-project", "", "ignore commitments on this project")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <project-id> <skill-id>",
		Short: "List candidates for one skill requirement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("project id: %w", err)
			}
			skillID, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("skill id: %w", err)
			}

			return withEngine(cmd.Context(), func(ctx context.Context, e *allocation.Engine) error {
				p, err := e.Matcher.Preview(ctx, projectID, skillID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(p)
				}

				fmt.Printf("required %d, active %d, remaining %d\n", p.Required, p.Active, p.Remaining)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Worker", "Code", "Name", "Stage", "Available", "Conflicts"})
				for _, c := range p.Candidates {
					code := ""
					if c.Worker.Code != nil {
						code = *c.Worker.Code
					}
					tw.AppendRow(table.Row{c.Worker.ID, code, c.Worker.Name, c.Worker.Stage, c.Available(), conflictSummary(c.Conflicts)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <worker|project|requirement> <id>",
		Short: "Show the stage audit trail of an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity := domain.EntityType(args[0])
			id, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("id: %w", err)
			}

			return withEngine(cmd.Context(), func(ctx context.Context, e *allocation.Engine) error {
				records, err := e.History.List(ctx, entity, id)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(records)
				}

				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"At", "From", "To", "Actor", "Reason"})
				for _, r := range records {
					tw.AppendRow(table.Row{r.CreatedAt.Format(time.RFC3339), r.FromValue, r.ToValue, r.ActorID, r.Reason})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func renderConflicts(conflicts []domain.Conflict) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Kind", "Name", "Start", "End", "Overlap (days)"})
	for _, c := range conflicts {
		tw.AppendRow(table.Row{c.Kind, c.Name, c.Range.Start.Format(time.DateOnly), c.Range.End.Format(time.DateOnly), c.OverlapDays})
	}
	tw.Render()
}

func conflictSummary(conflicts []domain.Conflict) string {
	names := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}
