package biz

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/portfolio"
)

// Watcher 组合监控器，由 portfolio.Monitor 实现
type Watcher interface {
	MonitorAll(ctx context.Context, companies []model.Company) *portfolio.BatchReport
}

// PortfolioRepo 组合监控仓库
type PortfolioRepo interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	SaveAlerts(ctx context.Context, alerts []portfolio.Alert) error
	ListAlerts(ctx context.Context, unacknowledgedOnly bool) ([]portfolio.Alert, error)
	AcknowledgeAlert(ctx context.Context, alertID string) error
}

// PortfolioUseCase 组合监控用例
type PortfolioUseCase struct {
	watcher Watcher
	repo    PortfolioRepo
	log     *log.Helper
}

func NewPortfolioUseCase(watcher Watcher, repo PortfolioRepo, logger log.Logger) *PortfolioUseCase {
	return &PortfolioUseCase{watcher: watcher, repo: repo, log: log.NewHelper(logger)}
}

// RunMonitoring 对全部在库公司执行一轮巡检并落库告警
func (uc *PortfolioUseCase) RunMonitoring(ctx context.Context) (*portfolio.BatchReport, error) {
	companies, err := uc.repo.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	batch := uc.watcher.MonitorAll(ctx, companies)

	for _, report := range batch.Reports {
		if len(report.Alerts) == 0 {
			continue
		}
		if err := uc.repo.SaveAlerts(ctx, report.Alerts); err != nil {
			uc.log.Errorf("告警入库失败 [%s]: %v", report.CompanyName, err)
		}
	}

	uc.log.Infof("组合监控完成: %d/%d 家公司", len(batch.Reports), len(companies))
	return batch, nil
}

// Alerts 查询告警列表
func (uc *PortfolioUseCase) Alerts(ctx context.Context, unacknowledgedOnly bool) ([]portfolio.Alert, error) {
	return uc.repo.ListAlerts(ctx, unacknowledgedOnly)
}

// Acknowledge 确认一条告警
func (uc *PortfolioUseCase) Acknowledge(ctx context.Context, alertID string) error {
	return uc.repo.AcknowledgeAlert(ctx, alertID)
}
