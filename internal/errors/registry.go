package errors

// ErrorTemplate defines a registered error code.
type ErrorTemplate struct {
	Category Category
	Severity Severity
	Message  string
	Detail   string
	DocURL   string
}

// registry maps stable error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration / consistency errors
	// ============================================

	"path-not-found": {
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  "no index node registered for path",
		Detail:   "A render pass reached a path that was never registered with the structured path index. Register every bound pattern before rendering.",
		DocURL:   "https://structive.dev/docs/errors/path-not-found",
	},
	"dependency-graph-inconsistency": {
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  "dependency graph references an unregistered path",
		Detail:   "A dynamic dependency edge points at a pattern with no index node. The edge was recorded against a path the index has never seen.",
		DocURL:   "https://structive.dev/docs/errors/dependency-graph-inconsistency",
	},
	"template-missing": {
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  "no template registered under this ID",
		Detail:   "A render instance referenced a template ID that was never registered. Register every template before binding it.",
		DocURL:   "https://structive.dev/docs/errors/template-missing",
	},
	"loop-context-missing": {
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  "wildcard path read without an active list-index context",
		Detail:   "Reading a wildcard-containing path requires a list index, either on the reference itself or from the enclosing loop context stack.",
		DocURL:   "https://structive.dev/docs/errors/loop-context-missing",
	},

	// ============================================
	// State access errors
	// ============================================

	"write-rejection": {
		Category: CategoryState,
		Severity: SeverityError,
		Message:  "write through a read-only state view",
		Detail:   "State writes are only permitted inside an update transaction. Reads during rendering go through the read-only view.",
		DocURL:   "https://structive.dev/docs/errors/write-rejection",
	},
	"api-not-found": {
		Category: CategoryState,
		Severity: SeverityError,
		Message:  "unknown reserved state operation",
		Detail:   "Names starting with '$' are reserved for imperative state operations and are not user-defined properties.",
		DocURL:   "https://structive.dev/docs/errors/api-not-found",
	},

	// ============================================
	// Update scheduler errors
	// ============================================

	"update-reentrancy": {
		Category: CategoryUpdate,
		Severity: SeverityError,
		Message:  "update transaction already open on this scheduler",
		Detail:   "Each scheduler instance allows exactly one open mutation scope. A second concurrent Update call is rejected, not queued.",
		DocURL:   "https://structive.dev/docs/errors/update-reentrancy",
	},
	"hook-failed": {
		Category: CategoryUpdate,
		Severity: SeverityError,
		Message:  "on-updated hook returned an error",
		Detail:   "User hook failures reject the transaction's completion. Hooks are never retried.",
		DocURL:   "https://structive.dev/docs/errors/hook-failed",
	},

	// ============================================
	// Consumer contract violations
	// ============================================

	"consumer-contract-violation": {
		Category: CategoryConsumer,
		Severity: SeverityFatal,
		Message:  "render consumer violated its contract",
		Detail:   "A consumer received a value of the wrong type or its parent host node is missing.",
		DocURL:   "https://structive.dev/docs/errors/consumer-contract-violation",
	},
	"list-instance-missing": {
		Category: CategoryConsumer,
		Severity: SeverityFatal,
		Message:  "no render instance for a tracked list index",
		Detail:   "The list reconciler tracked a list index with no corresponding render instance. This is an internal consistency fault.",
		DocURL:   "https://structive.dev/docs/errors/list-instance-missing",
	},
}

// Registered reports whether code has a registered template.
func Registered(code string) bool {
	_, ok := registry[code]
	return ok
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
