package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/config"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/dd"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/portfolio"
)

// Storage PostgreSQL 持久层，启动时自动建表
type Storage struct {
	db *sql.DB
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			website TEXT,
			description TEXT,
			industry TEXT,
			location TEXT,
			employee_count INTEGER,
			founded_year INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS founders (
			id TEXT PRIMARY KEY,
			company_id TEXT REFERENCES companies(id),
			name TEXT NOT NULL,
			previous_companies JSONB,
			education JSONB,
			fintech_experience BOOLEAN DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS evaluations (
			id TEXT PRIMARY KEY,
			company_id TEXT REFERENCES companies(id),
			score JSONB NOT NULL,
			investment_memo TEXT,
			due_diligence_questions JSONB,
			recommendation TEXT,
			evaluation_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS market_insights (
			id TEXT PRIMARY KEY,
			company_id TEXT REFERENCES companies(id),
			market_size_billion DOUBLE PRECISION,
			growth_rate_percent DOUBLE PRECISION,
			key_trends JSONB,
			regulatory_environment TEXT,
			market_timing TEXT,
			competitive_analysis TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS dd_reports (
			id TEXT PRIMARY KEY,
			company_id TEXT REFERENCES companies(id),
			report JSONB NOT NULL,
			overall_score DOUBLE PRECISION,
			recommendation TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS monitoring_alerts (
			id TEXT PRIMARY KEY,
			company_id TEXT,
			company_name TEXT,
			alert_type TEXT,
			severity TEXT,
			title TEXT,
			description TEXT,
			source_url TEXT,
			acknowledged BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}

// GetCompanyByName 按名称查公司，大小写不敏感；未找到返回 nil, nil
func (s *Storage) GetCompanyByName(ctx context.Context, name string) (*model.Company, error) {
	var c model.Company
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(website, ''), COALESCE(description, ''), COALESCE(industry, ''),
			COALESCE(location, ''), COALESCE(employee_count, 0), COALESCE(founded_year, 0)
		FROM companies WHERE name ILIKE $1`, name).
		Scan(&c.ID, &c.Name, &c.Website, &c.Description, &c.Industry, &c.Location, &c.EmployeeCount, &c.FoundedYear)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query company: %w", err)
	}
	return &c, nil
}

func (s *Storage) CreateCompany(ctx context.Context, company *model.Company) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, website, description, industry, location, employee_count, founded_year)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		company.ID, company.Name, company.Website, company.Description,
		company.Industry, company.Location, company.EmployeeCount, company.FoundedYear)
	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}
	return nil
}

func (s *Storage) UpdateCompany(ctx context.Context, company *model.Company) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE companies SET website = $2, description = $3, industry = $4, location = $5,
			employee_count = $6, founded_year = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		company.ID, company.Website, company.Description, company.Industry,
		company.Location, company.EmployeeCount, company.FoundedYear)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	return nil
}

func (s *Storage) CreateFounder(ctx context.Context, founder *model.Founder) error {
	previous, err := json.Marshal(founder.PreviousCompanies)
	if err != nil {
		return fmt.Errorf("failed to marshal previous companies: %w", err)
	}
	education, err := json.Marshal(founder.Education)
	if err != nil {
		return fmt.Errorf("failed to marshal education: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO founders (id, company_id, name, previous_companies, education, fintech_experience)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		founder.ID, founder.CompanyID, founder.Name, previous, education, founder.FintechExperience)
	if err != nil {
		return fmt.Errorf("failed to insert founder: %w", err)
	}
	return nil
}

func (s *Storage) CreateEvaluation(ctx context.Context, evaluation *model.Evaluation) error {
	score, err := json.Marshal(evaluation.Score)
	if err != nil {
		return fmt.Errorf("failed to marshal score: %w", err)
	}
	questions, err := json.Marshal(evaluation.DueDiligenceQuestions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evaluations (id, company_id, score, investment_memo, due_diligence_questions, recommendation, evaluation_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		evaluation.ID, evaluation.CompanyID, score, evaluation.InvestmentMemo,
		questions, evaluation.Recommendation, evaluation.EvaluationDate)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}
	return nil
}

func (s *Storage) CreateMarketInsight(ctx context.Context, insight *model.MarketInsight) error {
	trends, err := json.Marshal(insight.KeyTrends)
	if err != nil {
		return fmt.Errorf("failed to marshal key trends: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO market_insights (id, company_id, market_size_billion, growth_rate_percent, key_trends, regulatory_environment, market_timing, competitive_analysis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		insight.ID, insight.CompanyID, insight.MarketSizeBillion, insight.GrowthRatePercent,
		trends, insight.RegulatoryEnvironment, insight.MarketTimingAssessment, insight.CompetitiveAnalysisText)
	if err != nil {
		return fmt.Errorf("failed to insert market insight: %w", err)
	}
	return nil
}

func (s *Storage) SaveDDReport(ctx context.Context, companyID string, report *dd.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal dd report: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dd_reports (id, company_id, report, overall_score, recommendation)
		VALUES ($1, $2, $3, $4, $5)`,
		report.ID, companyID, payload, report.OverallScore, string(report.Recommendation))
	if err != nil {
		return fmt.Errorf("failed to insert dd report: %w", err)
	}
	return nil
}

// GetDDReport 取某公司最新的尽调报告；未找到返回 nil, nil
func (s *Storage) GetDDReport(ctx context.Context, companyID string) (*dd.Report, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT report FROM dd_reports WHERE company_id = $1
		ORDER BY created_at DESC LIMIT 1`, companyID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query dd report: %w", err)
	}
	var report dd.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dd report: %w", err)
	}
	return &report, nil
}

func (s *Storage) SaveAlerts(ctx context.Context, alerts []portfolio.Alert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, alert := range alerts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO monitoring_alerts (id, company_id, company_name, alert_type, severity, title, description, source_url, acknowledged)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			alert.ID, alert.CompanyID, alert.CompanyName, alert.Type, alert.Severity,
			alert.Title, alert.Description, alert.SourceURL, alert.Acknowledged)
		if err != nil {
			return fmt.Errorf("failed to insert alert: %w", err)
		}
	}

	return tx.Commit()
}

// ListAlerts 按时间倒序返回告警，unacknowledgedOnly 为 true 时只返回未确认的
func (s *Storage) ListAlerts(ctx context.Context, unacknowledgedOnly bool) ([]portfolio.Alert, error) {
	query := `
		SELECT id, COALESCE(company_id, ''), company_name, alert_type, severity, title, description, COALESCE(source_url, ''), acknowledged, created_at::TEXT
		FROM monitoring_alerts`
	if unacknowledgedOnly {
		query += ` WHERE acknowledged = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []portfolio.Alert{}
	for rows.Next() {
		var a portfolio.Alert
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.CompanyName, &a.Type, &a.Severity,
			&a.Title, &a.Description, &a.SourceURL, &a.Acknowledged, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *Storage) AcknowledgeAlert(ctx context.Context, alertID string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE monitoring_alerts SET acknowledged = TRUE WHERE id = $1`, alertID)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("alert not found: %s", alertID)
	}
	return nil
}

// ListCompanies 返回全部公司，供组合监控巡检
func (s *Storage) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(website, ''), COALESCE(description, ''), COALESCE(industry, ''),
			COALESCE(location, ''), COALESCE(employee_count, 0), COALESCE(founded_year, 0)
		FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	companies := []model.Company{}
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Website, &c.Description, &c.Industry,
			&c.Location, &c.EmployeeCount, &c.FoundedYear); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// RecentEvaluations 按评估时间倒序返回最近 limit 条评估
func (s *Storage) RecentEvaluations(ctx context.Context, limit int) ([]model.Evaluation, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, score, COALESCE(investment_memo, ''), due_diligence_questions, COALESCE(recommendation, ''), evaluation_date::TEXT
		FROM evaluations ORDER BY evaluation_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	return scanEvaluations(rows)
}

// HighScoreEvaluations 返回评分不低于 minScore 的评估
func (s *Storage) HighScoreEvaluations(ctx context.Context, minScore int) ([]model.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, score, COALESCE(investment_memo, ''), due_diligence_questions, COALESCE(recommendation, ''), evaluation_date::TEXT
		FROM evaluations WHERE (score->>'overall_score')::INTEGER >= $1
		ORDER BY (score->>'overall_score')::INTEGER DESC`, minScore)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	return scanEvaluations(rows)
}

// EvaluationsByCompany 返回某公司的全部评估
func (s *Storage) EvaluationsByCompany(ctx context.Context, companyID string) ([]model.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, score, COALESCE(investment_memo, ''), due_diligence_questions, COALESCE(recommendation, ''), evaluation_date::TEXT
		FROM evaluations WHERE company_id = $1 ORDER BY evaluation_date DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	return scanEvaluations(rows)
}

func scanEvaluations(rows *sql.Rows) ([]model.Evaluation, error) {
	evaluations := []model.Evaluation{}
	for rows.Next() {
		var (
			e         model.Evaluation
			score     []byte
			questions []byte
		)
		if err := rows.Scan(&e.ID, &e.CompanyID, &score, &e.InvestmentMemo, &questions, &e.Recommendation, &e.EvaluationDate); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		if err := json.Unmarshal(score, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to unmarshal score: %w", err)
		}
		if len(questions) > 0 {
			if err := json.Unmarshal(questions, &e.DueDiligenceQuestions); err != nil {
				return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
			}
		}
		evaluations = append(evaluations, e)
	}
	return evaluations, rows.Err()
}
