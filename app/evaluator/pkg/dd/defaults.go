package dd

// 采集完全失败时的保底记录。所有必填字段给出文档化默认值，
// 使聚合阶段无需处理缺字段或错误分支。

// DefaultFinancialRecord 财务类保底记录
func DefaultFinancialRecord() FinancialRecord {
	return FinancialRecord{
		BurnRateMonthly:    0,
		BurnTrend:          TrendStable,
		RunwayMonths:       12,
		BurnConfidence:     30,
		GrowthRate:         0,
		GrossMargin:        0,
		ContributionMargin: 0,
		PaybackPeriod:      24,
		ProfitabilityScore: 40,
		TotalRaised:        0,
		LastRoundSize:      0,
		LeadInvestors:      []string{},
		Degraded:           true,
	}
}

// DefaultLegalRecord 法务类保底记录
func DefaultLegalRecord() LegalRecord {
	return LegalRecord{
		Licenses:            []string{},
		Jurisdictions:       []string{},
		ComplianceScore:     50,
		PendingApplications: []string{},
		Patents:             []string{},
		Trademarks:          []string{},
		IPStrength:          40,
		ActiveCases:         []string{},
		LitigationRisk:      30,
		Jurisdiction:        "Delaware",
		EntityType:          "C-Corp",
		Subsidiaries:        []string{},
		ContractRisk:        RiskMedium,
		Degraded:            true,
	}
}

// DefaultTechnicalRecord 技术类保底记录
func DefaultTechnicalRecord() TechnicalRecord {
	return TechnicalRecord{
		ScalabilityScore:     60,
		ModernityScore:       60,
		SecurityScore:        60,
		MaintainabilityScore: 60,
		TechnicalDebt:        RiskMedium,
		Certifications:       []string{},
		DevTeamSize:          5,
		DeploymentFrequency:  "Weekly",
		LeadTime:             "3-5 days",
		ChangeFailureRate:    10,
		APIQuality:           60,
		PlatformCapabilities: []string{},
		Degraded:             true,
	}
}

// DefaultMarketRecord 市场类保底记录
func DefaultMarketRecord() MarketRecord {
	return MarketRecord{
		SatisfactionScore:      60,
		ChurnReasons:           []string{},
		DirectCompetitors:      []string{},
		IndirectCompetitors:    []string{},
		DifferentiationFactors: []string{},
		CompetitiveAdvantage:   50,
		TAM:                    1_000_000_000,
		SAM:                    100_000_000,
		SOM:                    10_000_000,
		CurrentPenetration:     0.1,
		GrowthPotential:        60,
		SalesCycleDays:         90,
		AverageDealSize:        25_000,
		Degraded:               true,
	}
}

// DefaultTeamRecord 团队类保底记录
func DefaultTeamRecord() TeamRecord {
	return TeamRecord{
		Founders:            []TeamMember{},
		KeyEmployees:        []string{},
		Advisors:            []string{},
		ExperienceScore:     60,
		DomainExpertise:     60,
		ExecutionCapability: 60,
		CultureFit:          60,
		KeyPersonRisk:       40,
		RetentionRisk:       30,
		Degraded:            true,
	}
}

// 提取部分成功、个别键缺失时使用的字段级回填值

func orInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func orFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func orStr(v string, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orTrend(v string, def Trend) Trend {
	switch Trend(v) {
	case TrendIncreasing, TrendStable, TrendDecreasing:
		return Trend(v)
	}
	return def
}

func orRisk(v string, def RiskLevel) RiskLevel {
	switch RiskLevel(v) {
	case RiskLow, RiskMedium, RiskHigh:
		return RiskLevel(v)
	}
	return def
}

func orList(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
