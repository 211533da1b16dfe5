package pipeline

// Поля разделяемого состояния конвейера. Все значения — строки:
// карты и анализы хранятся как markdown, артефакты — как пути к файлам.
const (
	// Засеиваются из профиля при kickoff.
	FieldSubjectName     = "subject_name"
	FieldSubjectEmail    = "subject_email"
	FieldBirthDate       = "birth_date"
	FieldBirthPlace      = "birth_place"
	FieldCurrentLocation = "current_location"
	FieldTransitMoment   = "transit_moment"

	// Контекст и вычисленные карты.
	FieldBiographicalContext = "biographical_context"
	FieldCurrentTransits     = "current_transits"
	FieldNatalChart          = "natal_chart"
	FieldTransitToNatal      = "transit_to_natal_chart"

	// Интерпретации.
	FieldTransitAnalysis        = "transit_analysis"
	FieldNatalAnalysis          = "natal_analysis"
	FieldTransitToNatalAnalysis = "transit_to_natal_analysis"

	// Сборка отчёта.
	FieldChartAppendices = "chart_appendices"
	FieldReportMarkdown  = "report_markdown"

	// Артефакты.
	FieldChartSVGPath   = "chart_svg_path"
	FieldReportPath     = "report_path"
	FieldReportHTMLPath = "report_html_path"
	FieldEmailDraftPath = "email_draft_path"
)

// Идентификаторы стадий конвейера.
const (
	StageIndexDocuments       = "index_documents"
	StageComputeTransitChart  = "compute_transit_chart"
	StageComputeNatalChart    = "compute_natal_chart"
	StageComputeTransitNatal  = "compute_transit_to_natal"
	StageAnalyzeTransits      = "analyze_transits"
	StageAnalyzeNatal         = "analyze_natal"
	StageAnalyzeTransitNatal  = "analyze_transit_to_natal"
	StageReviewTransits       = "review_transit_analysis"
	StageReviewNatal          = "review_natal_analysis"
	StageReviewTransitNatal   = "review_transit_to_natal"
	StageComposeAppendices    = "compose_appendices"
	StageDraftReport          = "draft_report"
	StageInterrogateReport    = "interrogate_report"
	StageRenderChartWheel     = "render_chart_wheel"
	StagePublishReport        = "publish_report"
	StageDraftEmail           = "draft_email"
)
