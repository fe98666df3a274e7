package orchestrator

import agentdomain "github.com/R3E-Network/agentsvc/domain/agent"

// requiredCapabilities maps a task type to the capability set a
// suitable agent must hold, mirroring axon's
// WorkflowExecutor::get_required_capabilities. Unknown custom types
// fall back to a single default capability so the matcher still has
// something to search for.
func requiredCapabilities(taskType string) []agentdomain.Capability {
	switch taskType {
	case "development":
		return []agentdomain.Capability{agentdomain.CapCodeGeneration, agentdomain.CapCodeRefactoring}
	case "review":
		return []agentdomain.Capability{agentdomain.CapCodeReview, agentdomain.CapCodeAnalysis}
	case "testing":
		return []agentdomain.Capability{agentdomain.CapTesting, agentdomain.CapTestGeneration}
	case "documentation":
		return []agentdomain.Capability{agentdomain.CapDocumentation, agentdomain.CapDocGeneration}
	case "optimization":
		return []agentdomain.Capability{agentdomain.CapCodeOptimization, agentdomain.CapPerformanceOptimization}
	case "security":
		return []agentdomain.Capability{agentdomain.CapSecurityAnalysis, agentdomain.CapSecurityAudit}
	case "architecture":
		return []agentdomain.Capability{agentdomain.CapSystemDesign, agentdomain.CapArchitectureAnalysis}
	default:
		return []agentdomain.Capability{agentdomain.CapCodeGeneration}
	}
}
