package repository

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"olimpiad/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type capturedStmt struct {
	sql  string
	vars []any
}

// newDryRunRepo returns a repository whose statements are built but never
// sent, together with the last statement it produced.
func newDryRunRepo(t *testing.T) (*OlimpiadRepository, *capturedStmt) {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "olimpiad:olimpiad@tcp(127.0.0.1:3306)/olimpiad?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}

	last := &capturedStmt{}
	capture := func(tx *gorm.DB) {
		last.sql = tx.Statement.SQL.String()
		last.vars = tx.Statement.Vars
	}
	if err := db.Callback().Update().After("gorm:update").Register("test:capture_update", capture); err != nil {
		t.Fatal(err)
	}
	if err := db.Callback().Query().After("gorm:query").Register("test:capture_query", capture); err != nil {
		t.Fatal(err)
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("test:capture_delete", capture); err != nil {
		t.Fatal(err)
	}
	return NewOlimpiadRepository(db), last
}

func TestCompileUpdate_FeatureSetAndUnsetFoldIntoOneExpression(t *testing.T) {
	cols, err := compileUpdate(Update{
		Set: map[string]any{
			FeaturePath("b"): "x",
			FeaturePath("a"): nil,
		},
		Unset: []string{FeaturePath("c")},
	})
	if err != nil {
		t.Fatalf("compileUpdate: %v", err)
	}
	if len(cols) != 1 {
		t.Fatalf("expected a single column, got %v", cols)
	}

	expr, ok := cols[FieldDynamicFeatures].(clause.Expr)
	if !ok {
		t.Fatalf("dynamic_features should be an expression, got %T", cols[FieldDynamicFeatures])
	}
	wantSQL := "JSON_REMOVE(JSON_SET(COALESCE(dynamic_features, JSON_OBJECT()), ?, CAST(? AS JSON), ?, CAST(? AS JSON)), ?)"
	if expr.SQL != wantSQL {
		t.Errorf("sql\n got: %s\nwant: %s", expr.SQL, wantSQL)
	}
	wantVars := []any{`$."a"`, "null", `$."b"`, `"x"`, `$."c"`}
	if !reflect.DeepEqual(expr.Vars, wantVars) {
		t.Errorf("vars: got %v, want %v", expr.Vars, wantVars)
	}
}

func TestCompileUpdate_UnsetOnly(t *testing.T) {
	cols, err := compileUpdate(Update{Unset: []string{FeaturePath("f1"), FeaturePath("f2")}})
	if err != nil {
		t.Fatal(err)
	}
	expr := cols[FieldDynamicFeatures].(clause.Expr)
	if expr.SQL != "JSON_REMOVE(COALESCE(dynamic_features, JSON_OBJECT()), ?, ?)" {
		t.Errorf("unexpected sql: %s", expr.SQL)
	}
}

func TestCompileUpdate_ScalarsAndPush(t *testing.T) {
	now := time.Now()
	cols, err := compileUpdate(Update{
		Set:  map[string]any{FieldName: "Math", FieldUpdatedAt: now},
		Push: map[string]any{FieldDates: model.DatePair{Text: "final", Date: "2026-05-01"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if cols[FieldName] != "Math" || cols[FieldUpdatedAt] != now {
		t.Errorf("scalar columns not passed through: %v", cols)
	}
	push, ok := cols[FieldDates].(clause.Expr)
	if !ok {
		t.Fatalf("dates should be an append expression, got %T", cols[FieldDates])
	}
	if !strings.HasPrefix(push.SQL, "JSON_ARRAY_APPEND(") {
		t.Errorf("unexpected push sql: %s", push.SQL)
	}
	if want := `{"text":"final","date":"2026-05-01"}`; push.Vars[0] != want {
		t.Errorf("push var: got %v, want %s", push.Vars[0], want)
	}
}

func TestCompileUpdate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		update  Update
		unknown bool
	}{
		{"unknown column", Update{Set: map[string]any{"password": "x"}}, true},
		{"nested scalar", Update{Set: map[string]any{"name.first": "x"}}, true},
		{"unset scalar", Update{Unset: []string{FieldName}}, true},
		{"unset whole map", Update{Unset: []string{FieldDynamicFeatures}}, true},
		{"push to scalar", Update{Push: map[string]any{FieldName: "x"}}, true},
		{"replace and patch", Update{Set: map[string]any{
			FieldDynamicFeatures: map[string]any{},
			FeaturePath("a"):     1,
		}}, false},
		{"replace and push dates", Update{
			Set:  map[string]any{FieldDates: []model.DatePair{}},
			Push: map[string]any{FieldDates: model.DatePair{}},
		}, false},
		{"bad dates type", Update{Set: map[string]any{FieldDates: "2026"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileUpdate(tt.update)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.unknown && !errors.Is(err, ErrUnknownField) {
				t.Errorf("expected ErrUnknownField, got %v", err)
			}
		})
	}
}

func TestJSONPath(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"3f2b-11", `$."3f2b-11"`},
		{"a.b", `$."a.b"`},
		{`say "hi"`, `$."say \"hi\""`},
		{`back\slash`, `$."back\\slash"`},
	}
	for _, tt := range tests {
		if got := jsonPath(tt.key); got != tt.want {
			t.Errorf("jsonPath(%q) = %s, want %s", tt.key, got, tt.want)
		}
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		search string
		want   string
	}{
		{"Math", "%math%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}
	for _, tt := range tests {
		if got := likePattern(tt.search); got != tt.want {
			t.Errorf("likePattern(%q) = %s, want %s", tt.search, got, tt.want)
		}
	}
}

func TestOlimpiadRepository_FanOutIsOneUnfilteredUpdate(t *testing.T) {
	repo, last := newDryRunRepo(t)

	_, err := repo.UpdateMany(context.Background(), Filter{}, Update{
		Set: map[string]any{FeaturePath("f1"): "none"},
	})
	if err != nil {
		t.Fatalf("UpdateMany: %v", err)
	}
	if !strings.HasPrefix(last.sql, "UPDATE `olimpiads` SET `dynamic_features`=JSON_SET(") {
		t.Errorf("unexpected statement: %s", last.sql)
	}
	if strings.Contains(last.sql, "WHERE") {
		t.Errorf("fan-out must not be filtered: %s", last.sql)
	}
	if strings.Contains(last.sql, "updated_at") {
		t.Errorf("fan-out must not touch updated_at: %s", last.sql)
	}
}

func TestOlimpiadRepository_UpdateOneScopesByID(t *testing.T) {
	repo, last := newDryRunRepo(t)

	_, err := repo.UpdateOne(context.Background(), Filter{ID: "o-1"}, Update{
		Set: map[string]any{FieldStatus: "ongoing"},
	})
	if err != nil {
		t.Fatalf("UpdateOne: %v", err)
	}
	if !strings.Contains(last.sql, "WHERE id = ?") {
		t.Errorf("expected id filter: %s", last.sql)
	}
	if len(last.vars) != 2 || last.vars[0] != "ongoing" || last.vars[1] != "o-1" {
		t.Errorf("unexpected vars: %v", last.vars)
	}
}

func TestOlimpiadRepository_EmptyFilterGuards(t *testing.T) {
	repo, _ := newDryRunRepo(t)
	ctx := context.Background()

	if _, err := repo.UpdateOne(ctx, Filter{}, Update{Set: map[string]any{FieldName: "x"}}); !errors.Is(err, ErrEmptyFilter) {
		t.Errorf("UpdateOne: expected ErrEmptyFilter, got %v", err)
	}
	if _, err := repo.DeleteOne(ctx, Filter{}); !errors.Is(err, ErrEmptyFilter) {
		t.Errorf("DeleteOne: expected ErrEmptyFilter, got %v", err)
	}
}

func TestOlimpiadRepository_SearchAndSort(t *testing.T) {
	repo, last := newDryRunRepo(t)

	if _, err := repo.FindMany(context.Background(), Filter{Status: "upcoming", Search: "Ma_th"}, SortCreatedDesc); err != nil {
		t.Fatalf("FindMany: %v", err)
	}
	for _, part := range []string{
		"status = ?",
		"(LOWER(name) LIKE ? OR LOWER(subject) LIKE ?)",
		"ORDER BY created_at DESC",
	} {
		if !strings.Contains(last.sql, part) {
			t.Errorf("query missing %q: %s", part, last.sql)
		}
	}
	want := []any{"upcoming", `%ma\_th%`, `%ma\_th%`}
	if !reflect.DeepEqual(last.vars, want) {
		t.Errorf("vars: got %v, want %v", last.vars, want)
	}
}
