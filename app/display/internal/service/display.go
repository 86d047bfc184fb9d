package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/kyadav2270/iva-agent/app/display/internal/biz"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/dd"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/evaluator"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/model"
	"github.com/kyadav2270/iva-agent/app/evaluator/pkg/portfolio"
)

// DisplayService 展示服务，HTTP 路由的处理入口
type DisplayService struct {
	ucEval      *biz.EvaluationUseCase
	ucPortfolio *biz.PortfolioUseCase
	log         *log.Helper
}

func NewDisplayService(ucEval *biz.EvaluationUseCase, ucPortfolio *biz.PortfolioUseCase, logger log.Logger) *DisplayService {
	return &DisplayService{
		ucEval:      ucEval,
		ucPortfolio: ucPortfolio,
		log:         log.NewHelper(logger),
	}
}

// EvaluateRequest 评估请求体
type EvaluateRequest struct {
	CompanyName string   `json:"company_name"`
	Website     string   `json:"website"`
	Description string   `json:"description"`
	Industry    string   `json:"industry"`
	FoundedYear int      `json:"founded_year"`
	Founders    []string `json:"founders"`
}

// EvaluateReply 评估响应体
type EvaluateReply struct {
	Company        model.Company         `json:"company"`
	Score          model.InvestmentScore `json:"score"`
	Recommendation string                `json:"recommendation"`
	Memo           string                `json:"memo"`
	DDQuestions    []string              `json:"dd_questions"`
	MarketInsight  model.MarketInsight   `json:"market_insight"`
	DDReport       *dd.Report            `json:"dd_report,omitempty"`
	DataQuality    string                `json:"data_quality"`
	ProcessingMs   int64                 `json:"processing_ms"`
}

func (s *DisplayService) Evaluate(ctx context.Context, req *EvaluateRequest) (*EvaluateReply, error) {
	if req.CompanyName == "" {
		return nil, errors.BadRequest("MISSING_COMPANY_NAME", "company_name is required")
	}

	result, err := s.ucEval.Evaluate(ctx, evaluator.Input{
		CompanyName:  req.CompanyName,
		Website:      req.Website,
		Description:  req.Description,
		Industry:     req.Industry,
		FoundedYear:  req.FoundedYear,
		FounderNames: req.Founders,
	})
	if err != nil {
		s.log.Errorf("评估失败 [%s]: %v", req.CompanyName, err)
		return nil, errors.InternalServer("EVALUATION_FAILED", err.Error())
	}

	return &EvaluateReply{
		Company:        result.Company,
		Score:          result.Score,
		Recommendation: result.Recommendation,
		Memo:           result.Memo,
		DDQuestions:    result.DDQuestions,
		MarketInsight:  result.MarketInsight,
		DDReport:       result.DDReport,
		DataQuality:    result.DataQuality,
		ProcessingMs:   result.ProcessingTime.Milliseconds(),
	}, nil
}

func (s *DisplayService) DDReport(ctx context.Context, companyName string) (*dd.Report, error) {
	if companyName == "" {
		return nil, errors.BadRequest("MISSING_COMPANY", "company query parameter is required")
	}
	report, err := s.ucEval.DDReport(ctx, companyName)
	if err != nil {
		return nil, errors.NotFound("DD_REPORT_NOT_FOUND", err.Error())
	}
	return report, nil
}

// EvaluationsReply 历史评估列表响应体
type EvaluationsReply struct {
	Evaluations []model.Evaluation `json:"evaluations"`
}

func (s *DisplayService) CompanyEvaluations(ctx context.Context, companyName string) (*EvaluationsReply, error) {
	if companyName == "" {
		return nil, errors.BadRequest("MISSING_COMPANY", "company query parameter is required")
	}
	evals, err := s.ucEval.CompanyEvaluations(ctx, companyName)
	if err != nil {
		return nil, errors.NotFound("COMPANY_NOT_FOUND", err.Error())
	}
	return &EvaluationsReply{Evaluations: evals}, nil
}

func (s *DisplayService) Dashboard(ctx context.Context) (*biz.Dashboard, error) {
	dashboard, err := s.ucEval.GetDashboard(ctx)
	if err != nil {
		return nil, errors.InternalServer("DASHBOARD_FAILED", err.Error())
	}
	return dashboard, nil
}

func (s *DisplayService) RunMonitoring(ctx context.Context) (*portfolio.BatchReport, error) {
	batch, err := s.ucPortfolio.RunMonitoring(ctx)
	if err != nil {
		return nil, errors.InternalServer("MONITORING_FAILED", err.Error())
	}
	return batch, nil
}

// AlertsReply 告警列表响应体
type AlertsReply struct {
	Alerts []portfolio.Alert `json:"alerts"`
}

func (s *DisplayService) Alerts(ctx context.Context, unacknowledgedOnly bool) (*AlertsReply, error) {
	alerts, err := s.ucPortfolio.Alerts(ctx, unacknowledgedOnly)
	if err != nil {
		return nil, errors.InternalServer("ALERTS_FAILED", err.Error())
	}
	return &AlertsReply{Alerts: alerts}, nil
}

// AckRequest 告警确认请求体
type AckRequest struct {
	AlertID string `json:"alert_id"`
}

func (s *DisplayService) AcknowledgeAlert(ctx context.Context, req *AckRequest) error {
	if req.AlertID == "" {
		return errors.BadRequest("MISSING_ALERT_ID", "alert_id is required")
	}
	if err := s.ucPortfolio.Acknowledge(ctx, req.AlertID); err != nil {
		return errors.NotFound("ALERT_NOT_FOUND", err.Error())
	}
	return nil
}
