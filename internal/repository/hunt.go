package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/carhunt/carhunt/internal/model"
)

// Common errors for hunt repository operations.
var (
	ErrHuntNotFound = errors.New("hunt not found")
	ErrNotOwner     = errors.New("hunt does not belong to this user")
)

// UpdateHuntInput carries the mutable hunt columns plus an optional
// replacement image set.
type UpdateHuntInput struct {
	CarModel string
	CarType  string
	Location string

	// When ReplaceImages is true all existing image rows for the hunt are
	// deleted and Images is inserted in order (full replace, not merge).
	ReplaceImages bool
	Images        []string
}

// CreateHunt inserts a hunt and its image rows in one transaction.
// The hunt's Images field is populated with the stored URLs on return.
func (r *Repository) CreateHunt(ctx context.Context, hunt *model.Hunt, imageURLs []string) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO hunts (hunt_id, user_id, car_model, car_type, location, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		_, err := tx.Exec(ctx, query,
			hunt.ID,
			hunt.UserID,
			hunt.CarModel,
			hunt.CarType,
			hunt.Location,
			hunt.CreatedAt,
			hunt.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create hunt: %w", err)
		}

		return insertImages(ctx, tx, hunt.ID, imageURLs)
	})
	if err != nil {
		return err
	}

	hunt.Images = append([]string(nil), imageURLs...)
	if hunt.Images == nil {
		hunt.Images = []string{}
	}
	return nil
}

// GetHuntByID retrieves a hunt with its ordered image URLs.
func (r *Repository) GetHuntByID(ctx context.Context, id string) (*model.Hunt, error) {
	query := `
		SELECT hunt_id, user_id, car_model, car_type, location, created_at, updated_at
		FROM hunts
		WHERE hunt_id = $1
	`

	hunt, err := scanHunt(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHuntNotFound
		}
		return nil, fmt.Errorf("failed to get hunt by ID: %w", err)
	}

	images, err := r.imagesForHunts(ctx, r.pool, []string{hunt.ID})
	if err != nil {
		return nil, err
	}
	hunt.Images = images[hunt.ID]
	if hunt.Images == nil {
		hunt.Images = []string{}
	}

	return hunt, nil
}

// ListHunts retrieves all hunts with their ordered image URLs.
// Images are fetched in a single batched query keyed by the hunt id set
// rather than one sub-query per hunt. Both statements run inside one
// read-only transaction so the image join sees a consistent snapshot.
func (r *Repository) ListHunts(ctx context.Context) ([]*model.Hunt, error) {
	return r.listHunts(ctx, "", nil)
}

// ListHuntsByOwner retrieves all hunts owned by the given user.
func (r *Repository) ListHuntsByOwner(ctx context.Context, userID string) ([]*model.Hunt, error) {
	return r.listHunts(ctx, " WHERE user_id = $1", []any{userID})
}

func (r *Repository) listHunts(ctx context.Context, where string, args []any) ([]*model.Hunt, error) {
	var hunts []*model.Hunt

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		query := `
			SELECT hunt_id, user_id, car_model, car_type, location, created_at, updated_at
			FROM hunts` + where + `
			ORDER BY created_at, hunt_id
		`

		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to list hunts: %w", err)
		}
		defer rows.Close()

		hunts = make([]*model.Hunt, 0)
		ids := make([]string, 0)
		for rows.Next() {
			hunt, err := scanHunt(rows)
			if err != nil {
				return fmt.Errorf("failed to scan hunt: %w", err)
			}
			hunts = append(hunts, hunt)
			ids = append(ids, hunt.ID)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate hunts: %w", err)
		}

		images, err := r.imagesForHunts(ctx, tx, ids)
		if err != nil {
			return err
		}

		for _, hunt := range hunts {
			hunt.Images = images[hunt.ID]
			if hunt.Images == nil {
				hunt.Images = []string{}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return hunts, nil
}

// UpdateHunt updates a hunt's mutable columns after verifying ownership.
// The target row is locked first so the ownership check and the update are
// atomic; a non-owner gets ErrNotOwner with no partial update applied.
func (r *Repository) UpdateHunt(ctx context.Context, huntID, userID string, in UpdateHuntInput) (*model.Hunt, error) {
	var hunt *model.Hunt

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		ownerID, err := lockHunt(ctx, tx, huntID)
		if err != nil {
			return err
		}
		if ownerID != userID {
			return ErrNotOwner
		}

		query := `
			UPDATE hunts
			SET car_model = $1, car_type = $2, location = $3, updated_at = now()
			WHERE hunt_id = $4
			RETURNING hunt_id, user_id, car_model, car_type, location, created_at, updated_at
		`

		hunt, err = scanHunt(tx.QueryRow(ctx, query, in.CarModel, in.CarType, in.Location, huntID))
		if err != nil {
			return fmt.Errorf("failed to update hunt: %w", err)
		}

		if in.ReplaceImages {
			if _, err := tx.Exec(ctx, `DELETE FROM images WHERE hunt_id = $1`, huntID); err != nil {
				return fmt.Errorf("failed to delete hunt images: %w", err)
			}
			if err := insertImages(ctx, tx, huntID, in.Images); err != nil {
				return err
			}
			hunt.Images = append([]string(nil), in.Images...)
		} else {
			images, err := r.imagesForHunts(ctx, tx, []string{huntID})
			if err != nil {
				return err
			}
			hunt.Images = images[huntID]
		}

		if hunt.Images == nil {
			hunt.Images = []string{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return hunt, nil
}

// DeleteHunt removes a hunt and its image rows.
// Ownership is verified before anything is deleted (check-then-act): the
// row is locked, the owner compared, and only then are the images and the
// hunt removed. A non-owner leaves the store unchanged.
func (r *Repository) DeleteHunt(ctx context.Context, huntID, userID string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		ownerID, err := lockHunt(ctx, tx, huntID)
		if err != nil {
			return err
		}
		if ownerID != userID {
			return ErrNotOwner
		}

		if _, err := tx.Exec(ctx, `DELETE FROM images WHERE hunt_id = $1`, huntID); err != nil {
			return fmt.Errorf("failed to delete hunt images: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM hunts WHERE hunt_id = $1`, huntID); err != nil {
			return fmt.Errorf("failed to delete hunt: %w", err)
		}

		return nil
	})
}

// lockHunt locks a hunt row and returns its owner id.
func lockHunt(ctx context.Context, tx pgx.Tx, huntID string) (string, error) {
	var ownerID string
	err := tx.QueryRow(ctx, `SELECT user_id FROM hunts WHERE hunt_id = $1 FOR UPDATE`, huntID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrHuntNotFound
		}
		return "", fmt.Errorf("failed to lock hunt: %w", err)
	}
	return ownerID, nil
}

// insertImages inserts image rows for a hunt in the given order.
func insertImages(ctx context.Context, tx pgx.Tx, huntID string, urls []string) error {
	for _, url := range urls {
		if _, err := tx.Exec(ctx, `INSERT INTO images (hunt_id, url) VALUES ($1, $2)`, huntID, url); err != nil {
			return fmt.Errorf("failed to insert image: %w", err)
		}
	}
	return nil
}

// querier is satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// imagesForHunts fetches the ordered image URLs for a set of hunt ids in a
// single query. Per-hunt order follows image insertion order.
func (r *Repository) imagesForHunts(ctx context.Context, q querier, huntIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(huntIDs))
	if len(huntIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT id, hunt_id, url
		FROM images
		WHERE hunt_id = ANY($1)
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, huntIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch hunt images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.ID, &img.HuntID, &img.URL); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		result[img.HuntID] = append(result[img.HuntID], img.URL)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}

	return result, nil
}

// scanHunt scans a hunts row from a pgx row.
func scanHunt(row pgx.Row) (*model.Hunt, error) {
	var hunt model.Hunt
	err := row.Scan(
		&hunt.ID,
		&hunt.UserID,
		&hunt.CarModel,
		&hunt.CarType,
		&hunt.Location,
		&hunt.CreatedAt,
		&hunt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &hunt, nil
}
