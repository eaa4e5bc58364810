package rubric

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/repograder/repograder/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutDocument(ctx context.Context, doc Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	meta, err := json.Marshal(doc.Rubric.Metadata)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO rubrics (id,name,description,total_points,passing_grade,metadata_json,created_by,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		doc.Rubric.ID, doc.Rubric.Name, doc.Rubric.Description, doc.Rubric.TotalPoints,
		doc.Rubric.PassingGrade, string(meta), doc.Rubric.CreatedBy, doc.Rubric.CreatedAt)
	if err != nil {
		return err
	}
	if err := insertCriteria(ctx, tx, doc.Criteria); err != nil {
		return err
	}
	return tx.Commit()
}

func insertCriteria(ctx context.Context, tx *sql.Tx, criteria []Criterion) error {
	for i, c := range criteria {
		files, err := json.Marshal(c.FilesToAnalyze)
		if err != nil {
			return err
		}
		levels, err := json.Marshal(c.Levels)
		if err != nil {
			return err
		}
		// Documents arrive here normalized; the fallbacks mirror
		// Normalize for callers that skip it.
		weight := 1.0
		if c.Weight != nil {
			weight = *c.Weight
		}
		ord := i
		if c.Order != nil {
			ord = *c.Order
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO criteria (id,rubric_id,title,max_points,weight,evaluation_method,unit_test_weight,gpt_weight,gpt_instructions,files_json,levels_json,ord)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			c.ID, c.RubricID, c.Title, c.MaxPoints, weight, c.EvaluationMethod,
			c.UnitTestWeight, c.GPTWeight, c.GPTInstructions, string(files), string(levels), ord)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) GetDocument(ctx context.Context, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,description,total_points,passing_grade,metadata_json,created_by,created_at
		FROM rubrics WHERE id=$1`, id)
	var (
		doc  Document
		meta string
	)
	err := row.Scan(&doc.Rubric.ID, &doc.Rubric.Name, &doc.Rubric.Description,
		&doc.Rubric.TotalPoints, &doc.Rubric.PassingGrade, &meta,
		&doc.Rubric.CreatedBy, &doc.Rubric.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, apperr.NotFound("rubric %s not found", id)
		}
		return Document{}, err
	}
	if meta != "" && meta != "null" {
		if err := json.Unmarshal([]byte(meta), &doc.Rubric.Metadata); err != nil {
			return Document{}, err
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id,rubric_id,title,max_points,weight,evaluation_method,unit_test_weight,gpt_weight,gpt_instructions,files_json,levels_json,ord
		FROM criteria WHERE rubric_id=$1 ORDER BY ord ASC`, id)
	if err != nil {
		return Document{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			c             Criterion
			weight        float64
			ord           int
			files, levels string
		)
		if err := rows.Scan(&c.ID, &c.RubricID, &c.Title, &c.MaxPoints, &weight,
			&c.EvaluationMethod, &c.UnitTestWeight, &c.GPTWeight, &c.GPTInstructions,
			&files, &levels, &ord); err != nil {
			return Document{}, err
		}
		c.Weight = &weight
		c.Order = &ord
		if files != "" && files != "null" {
			if err := json.Unmarshal([]byte(files), &c.FilesToAnalyze); err != nil {
				return Document{}, err
			}
		}
		if err := json.Unmarshal([]byte(levels), &c.Levels); err != nil {
			return Document{}, err
		}
		doc.Criteria = append(doc.Criteria, c)
	}
	return doc, rows.Err()
}

func (s *SQLStore) ReplaceDocument(ctx context.Context, doc Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	meta, err := json.Marshal(doc.Rubric.Metadata)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE rubrics SET name=$1,description=$2,total_points=$3,passing_grade=$4,metadata_json=$5 WHERE id=$6`,
		doc.Rubric.Name, doc.Rubric.Description, doc.Rubric.TotalPoints,
		doc.Rubric.PassingGrade, string(meta), doc.Rubric.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("rubric %s not found", doc.Rubric.ID)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM criteria WHERE rubric_id=$1`, doc.Rubric.ID); err != nil {
		return err
	}
	if err := insertCriteria(ctx, tx, doc.Criteria); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	// Criteria cascade via FK.
	res, err := s.db.ExecContext(ctx, `DELETE FROM rubrics WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("rubric %s not found", id)
	}
	return nil
}

func (s *SQLStore) IsAttached(ctx context.Context, rubricID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM assignments WHERE rubric_id=$1 LIMIT 1`, rubricID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Rubric, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT id,name,description,total_points,passing_grade,created_by,created_at FROM rubrics`
	args := []any{}
	if opts.CreatedBy != "" {
		q += ` WHERE created_by=$1`
		args = append(args, opts.CreatedBy)
	}
	q += ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit) + ` OFFSET ` + strconv.Itoa(opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Rubric
	for rows.Next() {
		var r Rubric
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.TotalPoints, &r.PassingGrade, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
