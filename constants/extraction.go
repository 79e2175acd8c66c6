package constants

// Text backends for digital extraction.
const (
	TextBackendPdftotext = "pdftotext"
	TextBackendNative    = "native"
)

// OCR engines.
const (
	OCREngineTesseract = "tesseract"
	OCREngineGosseract = "gosseract"
)

// OCRUnavailablePolicy decides what a run does when no OCR engine can be initialized.
type OCRUnavailablePolicy string

const (
	OCRUnavailableFail    OCRUnavailablePolicy = "fail"
	OCRUnavailableDegrade OCRUnavailablePolicy = "degrade"
)

// Upload retention policies.
const (
	RetentionDelete = "delete"
	RetentionRetain = "retain"
)

// LLM providers for quiz generation.
const (
	LLMProviderMock   = "mock"
	LLMProviderOpenAI = "openai"
	LLMProviderVertex = "vertex"
)
