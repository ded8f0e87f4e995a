package excel

// ExcelConfig holds configuration for workbook output
type ExcelConfig struct {
	// SheetName is the sheet written by WriteFrame
	SheetName string `yaml:"sheet_name" validate:"required"`
	// DateNumFmt is the number format applied to time columns and the index
	DateNumFmt string `yaml:"date_num_fmt" validate:"required"`
}

// DefaultExcelConfig returns the defaults the merged exports have always used
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		SheetName:  "Sheet1",
		DateNumFmt: "yyyy-mm-dd hh:mm:ss",
	}
}
