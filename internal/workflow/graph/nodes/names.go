package nodes

// Graph node names. The live topology is:
// START -> extraction -> validation -> classification -> {basic_info, plan} -> combine -> eval -> END
const (
	NodeExtraction     = "extraction"
	NodeValidation     = "validation"
	NodeClassification = "classification"
	NodeBasicInfo      = "basic_info"
	NodePlan           = "plan"
	NodeCombine        = "combine"
	NodeEval           = "eval"
)
