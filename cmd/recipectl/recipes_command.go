package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sakif/recipe-api/internal/model"
	"github.com/sakif/recipe-api/internal/repository"
)

func newRecipesCommand(ctx *commandContext) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "List a user's recipes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.ErrOrStderr(), func(a *app) error {
				user, err := a.db.GetUserByEmail(cmd.Context(), model.NormalizeEmail(email))
				if err != nil {
					return fmt.Errorf("look up %s: %w", email, err)
				}
				recipes, err := a.recipes.List(cmd.Context(), user.ID, repository.RecipeFilter{})
				if err != nil {
					return fmt.Errorf("list recipes: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(recipes) == 0 {
					fmt.Fprintf(out, "%s has no recipes\n", user.Email)
					return nil
				}
				fmt.Fprintln(out, renderRecipes(recipes, shouldStyle(out)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Owner's email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func renderRecipes(recipes []model.Recipe, styled bool) string {
	headers := []string{"ID", "Title", "Minutes", "Price", "Tags", "Ingredients", "Created"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft}

	rows := make([][]string, 0, len(recipes))
	for _, r := range recipes {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			strconv.Itoa(r.TimeMinutes),
			r.Price.StringFixed(2),
			joinNames(r.Tags),
			joinNames(r.Ingredients),
			humanize.Time(r.CreatedAt),
		})
	}
	return renderTable(headers, rows, aligns, styled)
}

func joinNames[T fmt.Stringer](items []T) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.String())
	}
	return strings.Join(names, ", ")
}
