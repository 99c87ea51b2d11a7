package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/quantummeet/quantummeet/internal/agent"
	"github.com/quantummeet/quantummeet/internal/rpc"
	"github.com/spf13/cobra"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Agent management commands",
	}

	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentCreateCmd())
	return cmd
}

func newAgentListCmd() *cobra.Command {
	var (
		configPath string
		userEmail  string
		search     string
		page       int
		pageSize   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's agents",
		Long:  "Lists a user's agents, newest first. Output is formatted as a table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgentList(cmd, configPath, userEmail, rpc.NewPageInput(page, pageSize, search))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to QuantumMeet config file")
	cmd.Flags().StringVar(&userEmail, "user", "", "owner's email address (required)")
	cmd.Flags().StringVar(&search, "search", "", "filter by name (case-insensitive)")
	cmd.Flags().IntVar(&page, "page", rpc.DefaultPage, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", rpc.DefaultPageSize, "agents per page")
	cmd.MarkFlagRequired("user")
	return cmd
}

func runAgentList(cmd *cobra.Command, configPath, userEmail string, in rpc.PageInput) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	user, err := lookupUser(ctx, gormDB, userEmail)
	if err != nil {
		return err
	}

	res, err := agent.GetMany(ctx, gormDB, user.ID, in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(res.Items) == 0 {
		fmt.Fprintln(out, "No agents found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMEETINGS\tCREATED")
	for _, a := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", a.ID, a.Name, a.MeetingCount, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Fprintf(out, "\nPage %d of %d (%d total)\n", pageOf(in), res.TotalPages, res.Total)
	return nil
}

func newAgentCreateCmd() *cobra.Command {
	var (
		configPath   string
		userEmail    string
		name         string
		instructions string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgentCreate(cmd, configPath, userEmail, agent.CreateInput{
				Name:         name,
				Instructions: instructions,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to QuantumMeet config file")
	cmd.Flags().StringVar(&userEmail, "user", "", "owner's email address (required)")
	cmd.Flags().StringVar(&name, "name", "", "agent name (required)")
	cmd.Flags().StringVar(&instructions, "instructions", "", "instructions the agent follows (required)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("instructions")
	return cmd
}

func runAgentCreate(cmd *cobra.Command, configPath, userEmail string, in agent.CreateInput) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	ctx := context.Background()
	user, err := lookupUser(ctx, gormDB, userEmail)
	if err != nil {
		return err
	}

	row, err := agent.Create(ctx, gormDB, user.ID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created agent %s (%s)\n", row.Name, row.ID)
	return nil
}

// pageOf returns the page a list command asked for.
func pageOf(in rpc.PageInput) int {
	if in.Page == nil {
		return rpc.DefaultPage
	}
	return *in.Page
}
