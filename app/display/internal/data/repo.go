package data

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/kyadav2270/iva-agent/app/display/internal/biz"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/dd"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/portfolio"
)

type evaluationRepo struct {
	data *Data
	log  *log.Helper
}

func NewEvaluationRepo(data *Data, logger log.Logger) biz.EvaluationRepo {
	return &evaluationRepo{data: data, log: log.NewHelper(logger)}
}

func (r *evaluationRepo) GetCompanyByName(ctx context.Context, name string) (*model.Company, error) {
	return r.data.store.GetCompanyByName(ctx, name)
}

func (r *evaluationRepo) GetDDReport(ctx context.Context, companyID string) (*dd.Report, error) {
	return r.data.store.GetDDReport(ctx, companyID)
}

func (r *evaluationRepo) RecentEvaluations(ctx context.Context, limit int) ([]model.Evaluation, error) {
	return r.data.store.RecentEvaluations(ctx, limit)
}

func (r *evaluationRepo) HighScoreEvaluations(ctx context.Context, minScore int) ([]model.Evaluation, error) {
	return r.data.store.HighScoreEvaluations(ctx, minScore)
}

func (r *evaluationRepo) EvaluationsByCompany(ctx context.Context, companyID string) ([]model.Evaluation, error) {
	return r.data.store.EvaluationsByCompany(ctx, companyID)
}

type portfolioRepo struct {
	data *Data
	log  *log.Helper
}

func NewPortfolioRepo(data *Data, logger log.Logger) biz.PortfolioRepo {
	return &portfolioRepo{data: data, log: log.NewHelper(logger)}
}

func (r *portfolioRepo) ListCompanies(ctx context.Context) ([]model.Company, error) {
	return r.data.store.ListCompanies(ctx)
}

func (r *portfolioRepo) SaveAlerts(ctx context.Context, alerts []portfolio.Alert) error {
	return r.data.store.SaveAlerts(ctx, alerts)
}

func (r *portfolioRepo) ListAlerts(ctx context.Context, unacknowledgedOnly bool) ([]portfolio.Alert, error) {
	return r.data.store.ListAlerts(ctx, unacknowledgedOnly)
}

func (r *portfolioRepo) AcknowledgeAlert(ctx context.Context, alertID string) error {
	return r.data.store.AcknowledgeAlert(ctx, alertID)
}
