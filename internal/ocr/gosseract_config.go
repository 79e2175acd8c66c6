package ocr

// GosseractConfig configures the in-process libtesseract engine.
type GosseractConfig struct {
	Language    string
	TessdataDir string
	PSM         int
	DPI         int
}
