package biz

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/dd"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/evaluator"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
)

// Engine 评估引擎，由 evaluator.Evaluator 实现
type Engine interface {
	Run(ctx context.Context, input evaluator.Input) (*evaluator.Result, error)
}

// EvaluationRepo 评估读取仓库
type EvaluationRepo interface {
	GetCompanyByName(ctx context.Context, name string) (*model.Company, error)
	GetDDReport(ctx context.Context, companyID string) (*dd.Report, error)
	RecentEvaluations(ctx context.Context, limit int) ([]model.Evaluation, error)
	HighScoreEvaluations(ctx context.Context, minScore int) ([]model.Evaluation, error)
	EvaluationsByCompany(ctx context.Context, companyID string) ([]model.Evaluation, error)
}

// Dashboard 投资看板聚合视图
type Dashboard struct {
	Recent    []model.Evaluation `json:"recent"`
	HighScore []model.Evaluation `json:"high_score"`
}

// EvaluationUseCase 评估用例
type EvaluationUseCase struct {
	engine Engine
	repo   EvaluationRepo
	log    *log.Helper
}

func NewEvaluationUseCase(engine Engine, repo EvaluationRepo, logger log.Logger) *EvaluationUseCase {
	return &EvaluationUseCase{engine: engine, repo: repo, log: log.NewHelper(logger)}
}

// Evaluate 执行一次完整评估
func (uc *EvaluationUseCase) Evaluate(ctx context.Context, input evaluator.Input) (*evaluator.Result, error) {
	uc.log.Infof("开始评估公司: %s", input.CompanyName)
	return uc.engine.Run(ctx, input)
}

// DDReport 按公司名取最新尽调报告
func (uc *EvaluationUseCase) DDReport(ctx context.Context, companyName string) (*dd.Report, error) {
	company, err := uc.repo.GetCompanyByName(ctx, companyName)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("company not found: %s", companyName)
	}
	report, err := uc.repo.GetDDReport(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("no due diligence report for %s", companyName)
	}
	return report, nil
}

// CompanyEvaluations 按公司名取历史评估记录
func (uc *EvaluationUseCase) CompanyEvaluations(ctx context.Context, companyName string) ([]model.Evaluation, error) {
	company, err := uc.repo.GetCompanyByName(ctx, companyName)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("company not found: %s", companyName)
	}
	return uc.repo.EvaluationsByCompany(ctx, company.ID)
}

// GetDashboard 聚合最近评估与高分评估
func (uc *EvaluationUseCase) GetDashboard(ctx context.Context) (*Dashboard, error) {
	recent, err := uc.repo.RecentEvaluations(ctx, 10)
	if err != nil {
		return nil, err
	}
	highScore, err := uc.repo.HighScoreEvaluations(ctx, 75)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Recent: recent, HighScore: highScore}, nil
}
