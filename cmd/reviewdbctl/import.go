package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kratovich/reviewdb/internal/database"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/spf13/cobra"
)

// importer loads the CSV fixture set in dependency order. User rows carry
// integer ids in the fixtures; they are remapped to generated UUIDs within a
// single run so review/comment author references stay intact.
type importer struct {
	dataDir string
	userIDs map[int]uuid.UUID
}

func newImportCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load catalog fixtures from CSV files",
		Run: func(cmd *cobra.Command, args []string) {
			imp := &importer{
				dataDir: dataDir,
				userIDs: make(map[int]uuid.UUID),
			}

			steps := []struct {
				file string
				load func([]map[string]string) error
			}{
				{"category", imp.loadCategories},
				{"genre", imp.loadGenres},
				{"users", imp.loadUsers},
				{"titles", imp.loadTitles},
				{"genre_title", imp.loadGenreTitles},
				{"review", imp.loadReviews},
				{"comments", imp.loadComments},
			}

			for _, step := range steps {
				rows, err := imp.readCSV(step.file)
				if err != nil {
					log.Printf("Skipping %s: %v", step.file, err)
					continue
				}
				if err := step.load(rows); err != nil {
					log.Fatalf("Import of %s failed: %v", step.file, err)
				}
				log.Printf("Imported %s (%d rows)", step.file, len(rows))
			}
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "static/data", "directory containing the CSV fixtures")
	return cmd
}

// readCSV returns the file's rows as header-keyed maps.
func (imp *importer) readCSV(name string) ([]map[string]string, error) {
	path := filepath.Join(imp.dataDir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func atoi(row map[string]string, col string) (int, error) {
	v, err := strconv.Atoi(row[col])
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	return v, nil
}

func parseDate(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Now()
}

func (imp *importer) loadCategories(rows []map[string]string) error {
	for _, row := range rows {
		id, err := atoi(row, "id")
		if err != nil {
			return err
		}
		category := models.Category{ID: uint(id), Name: row["name"], Slug: row["slug"]}
		if err := database.DB.Create(&category).Error; err != nil {
			return err
		}
	}
	return nil
}

func (imp *importer) loadGenres(rows []map[string]string) error {
	for _, row := range rows {
		id, err := atoi(row, "id")
		if err != nil {
			return err
		}
		genre := models.Genre{ID: uint(id), Name: row["name"], Slug: row["slug"]}
		if err := database.DB.Create(&genre).Error; err != nil {
			return err
		}
	}
	return nil
}

func (imp *importer) loadUsers(rows []map[string]string) error {
	for _, row := range rows {
		fixtureID, err := atoi(row, "id")
		if err != nil {
			return err
		}

		role := models.Role(row["role"])
		if role == "" {
			role = models.RoleUser
		}

		user := models.User{
			ID:                   uuid.New(),
			Username:             row["username"],
			Email:                row["email"],
			Role:                 role,
			Bio:                  row["bio"],
			FirstName:            row["first_name"],
			LastName:             row["last_name"],
			ConfirmationCodeHash: models.NoConfirmationCode,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return err
		}
		imp.userIDs[fixtureID] = user.ID
	}
	return nil
}

func (imp *importer) loadTitles(rows []map[string]string) error {
	for _, row := range rows {
		id, err := atoi(row, "id")
		if err != nil {
			return err
		}
		year, err := atoi(row, "year")
		if err != nil {
			return err
		}

		title := models.Title{
			ID:          uint(id),
			Name:        row["name"],
			Year:        year,
			Description: row["description"],
		}
		if row["category"] != "" {
			categoryID, err := atoi(row, "category")
			if err != nil {
				return err
			}
			cid := uint(categoryID)
			title.CategoryID = &cid
		}

		if err := database.DB.Create(&title).Error; err != nil {
			return err
		}
	}
	return nil
}

func (imp *importer) loadGenreTitles(rows []map[string]string) error {
	for _, row := range rows {
		titleID, err := atoi(row, "title_id")
		if err != nil {
			return err
		}
		genreID, err := atoi(row, "genre_id")
		if err != nil {
			return err
		}
		if err := database.DB.Exec(
			"INSERT INTO title_genres (title_id, genre_id) VALUES (?, ?)",
			titleID, genreID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (imp *importer) loadReviews(rows []map[string]string) error {
	for _, row := range rows {
		id, err := atoi(row, "id")
		if err != nil {
			return err
		}
		titleID, err := atoi(row, "title_id")
		if err != nil {
			return err
		}
		authorFixtureID, err := atoi(row, "author")
		if err != nil {
			return err
		}
		score, err := atoi(row, "score")
		if err != nil {
			return err
		}

		authorID, ok := imp.userIDs[authorFixtureID]
		if !ok {
			return fmt.Errorf("review %d references unknown user %d", id, authorFixtureID)
		}

		review := models.Review{
			ID:        uint(id),
			TitleID:   uint(titleID),
			AuthorID:  authorID,
			Text:      row["text"],
			Score:     score,
			CreatedAt: parseDate(row["pub_date"]),
		}
		if err := database.DB.Create(&review).Error; err != nil {
			return err
		}
	}
	return nil
}

func (imp *importer) loadComments(rows []map[string]string) error {
	for _, row := range rows {
		id, err := atoi(row, "id")
		if err != nil {
			return err
		}
		reviewID, err := atoi(row, "review_id")
		if err != nil {
			return err
		}
		authorFixtureID, err := atoi(row, "author")
		if err != nil {
			return err
		}

		authorID, ok := imp.userIDs[authorFixtureID]
		if !ok {
			return fmt.Errorf("comment %d references unknown user %d", id, authorFixtureID)
		}

		comment := models.Comment{
			ID:        uint(id),
			ReviewID:  uint(reviewID),
			AuthorID:  authorID,
			Text:      row["text"],
			CreatedAt: parseDate(row["pub_date"]),
		}
		if err := database.DB.Create(&comment).Error; err != nil {
			return err
		}
	}
	return nil
}
