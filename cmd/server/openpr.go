package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arturoeanton/ghost-commit/internal/adapter/vcs"
	"github.com/arturoeanton/ghost-commit/internal/analysis"
	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/service"
	"github.com/arturoeanton/ghost-commit/pkg/config"
)

func newOpenPRCmd(cfg func() *config.Config) *cobra.Command {
	var (
		authorName  string
		authorEmail string
	)

	cmd := &cobra.Command{
		Use:   "open-pr <repo-url>",
		Short: "Clone a repository, add Stack Auth on a new branch and open a pull request",
		Long: `open-pr performs real changes: it clones the repository with GITHUB_TOKEN,
commits the Stack Auth integration on the ghost-commit-resurrection branch,
pushes it and opens a pull request against the default branch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			ref, err := analysis.ParseRepoURL(args[0])
			if err != nil {
				return err
			}

			a, err := wire(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer a.Close()

			engine := service.NewPREngine(
				vcs.NewGitProvider(authorName, authorEmail),
				a.github,
				a.github,
				service.PREngineOptions{
					Token:      c.GitHubToken,
					WorkDir:    c.WorkDir,
					NPMInstall: c.NPMInstall,
				},
			)
			res, err := engine.Run(cmd.Context(), ref)
			if a.db != nil {
				details := fmt.Sprintf(`{"ok":%t}`, err == nil)
				if werr := a.db.WriteAudit(cmd.Context(), domain.AuditLog{
					Action:     domain.AuditActionOpenPR,
					Resource:   "repository",
					ResourceID: ref.FullName(),
					Details:    details,
				}); werr != nil {
					slog.Warn("failed to write audit log", "error", werr)
				}
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&authorName, "author-name", "Ghost Commit", "commit author name")
	cmd.Flags().StringVar(&authorEmail, "author-email", "ghost-commit@users.noreply.github.com", "commit author email")
	return cmd
}
