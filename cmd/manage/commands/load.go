package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/foodgram/internal/server/models"
	"github.com/dmitrijs2005/foodgram/internal/server/services"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type tagRecord struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

var loadIngredientsCmd = &cobra.Command{
	Use:   "load-ingredients <file.json>",
	Short: "Load ingredients from a JSON array of {name, measurement_unit}",
	Long: `Load ingredients from a JSON file. Rows already present (same name and
measurement unit) are skipped, so the command can be re-run safely.

Example:
  foodgram-manage load-ingredients data/ingredients.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := readIngredients(args[0])
		if err != nil {
			return err
		}

		db, m, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		catalog, err := services.NewCatalogService(db, m, 1)
		if err != nil {
			return err
		}
		n, err := catalog.LoadIngredients(cmd.Context(), items)
		if err != nil {
			return err
		}

		cmd.Printf("Loaded %d of %d ingredients\n", n, len(items))
		return nil
	},
}

var loadTagsCmd = &cobra.Command{
	Use:   "load-tags <file.json>",
	Short: "Load tags from a JSON array of {name, color, slug}",
	Long: `Load tags from a JSON file. Tags whose slug already exists are skipped.

Example:
  foodgram-manage load-tags data/tags.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := readTags(args[0])
		if err != nil {
			return err
		}

		db, m, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		catalog, err := services.NewCatalogService(db, m, 1)
		if err != nil {
			return err
		}
		n, err := catalog.LoadTags(cmd.Context(), items)
		if err != nil {
			return err
		}

		cmd.Printf("Loaded %d of %d tags\n", n, len(items))
		return nil
	},
}

func readIngredients(path string) ([]models.Ingredient, error) {
	var records []ingredientRecord
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}

	out := make([]models.Ingredient, 0, len(records))
	for i, r := range records {
		if r.Name == "" || r.MeasurementUnit == "" {
			return nil, fmt.Errorf("%s: record %d: name and measurement_unit are required", path, i)
		}
		out = append(out, models.Ingredient{Name: r.Name, MeasurementUnit: r.MeasurementUnit})
	}
	return out, nil
}

func readTags(path string) ([]models.Tag, error) {
	var records []tagRecord
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}

	out := make([]models.Tag, 0, len(records))
	for i, r := range records {
		if r.Name == "" || r.Slug == "" {
			return nil, fmt.Errorf("%s: record %d: name and slug are required", path, i)
		}
		out = append(out, models.Tag{Name: r.Name, Color: r.Color, Slug: r.Slug})
	}
	return out, nil
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
