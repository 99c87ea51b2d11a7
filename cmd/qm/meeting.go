package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/quantummeet/quantummeet/internal/meeting"
	"github.com/quantummeet/quantummeet/internal/rpc"
	"github.com/spf13/cobra"
)

func newMeetingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Meeting management commands",
	}

	cmd.AddCommand(newMeetingListCmd())
	cmd.AddCommand(newMeetingCreateCmd())
	return cmd
}

func newMeetingListCmd() *cobra.Command {
	var (
		configPath string
		userEmail  string
		search     string
		agentID    string
		status     string
		page       int
		pageSize   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's meetings",
		Long:  "Lists a user's meetings with their agent, newest first. Output is formatted as a table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := meeting.ListInput{PageInput: rpc.NewPageInput(page, pageSize, search)}
			if agentID != "" {
				in.AgentID = &agentID
			}
			if status != "" {
				in.Status = &status
			}
			return runMeetingList(cmd, configPath, userEmail, in)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to QuantumMeet config file")
	cmd.Flags().StringVar(&userEmail, "user", "", "owner's email address (required)")
	cmd.Flags().StringVar(&search, "search", "", "filter by name (case-insensitive)")
	cmd.Flags().StringVar(&agentID, "agent", "", "filter by agent ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (upcoming, active, completed, processing, cancelled)")
	cmd.Flags().IntVar(&page, "page", rpc.DefaultPage, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", rpc.DefaultPageSize, "meetings per page")
	cmd.MarkFlagRequired("user")
	return cmd
}

func runMeetingList(cmd *cobra.Command, configPath, userEmail string, in meeting.ListInput) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	user, err := lookupUser(ctx, gormDB, userEmail)
	if err != nil {
		return err
	}

	res, err := meeting.GetMany(ctx, gormDB, user.ID, in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(res.Items) == 0 {
		fmt.Fprintln(out, "No meetings found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAGENT\tSTATUS\tDURATION\tCREATED")
	for _, m := range res.Items {
		agentName := "-"
		if m.Agent != nil {
			agentName = m.Agent.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			m.ID, m.Name, agentName, m.Status, formatSeconds(m.Duration), m.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Fprintf(out, "\nPage %d of %d (%d total)\n", pageOf(in.PageInput), res.TotalPages, res.Total)
	return nil
}

func newMeetingCreateCmd() *cobra.Command {
	var (
		configPath string
		userEmail  string
		name       string
		agentID    string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a meeting with one of the user's agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetingCreate(cmd, configPath, userEmail, meeting.CreateInput{
				Name:    name,
				AgentID: agentID,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to QuantumMeet config file")
	cmd.Flags().StringVar(&userEmail, "user", "", "owner's email address (required)")
	cmd.Flags().StringVar(&name, "name", "", "meeting name (required)")
	cmd.Flags().StringVar(&agentID, "agent", "", "agent ID (required)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("agent")
	return cmd
}

func runMeetingCreate(cmd *cobra.Command, configPath, userEmail string, in meeting.CreateInput) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	user, err := lookupUser(ctx, gormDB, userEmail)
	if err != nil {
		return err
	}

	row, err := meeting.Create(ctx, gormDB, user.ID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created meeting %s (%s) status=%s\n", row.Name, row.ID, row.Status)
	return nil
}

// formatSeconds renders a nullable duration in seconds.
func formatSeconds(secs *float64) string {
	if secs == nil {
		return "-"
	}
	return time.Duration(*secs * float64(time.Second)).Round(time.Second).String()
}
