package langdata

import (
	"os"
	"path/filepath"
)

// LanguageOption describes one known traineddata file available for
// one-call downloads.
type LanguageOption struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	FileName    string `json:"fileName"`
	SizeLabel   string `json:"sizeLabel"`
	Downloaded  bool   `json:"downloaded"`
	LocalPath   string `json:"localPath,omitempty"`
	Description string `json:"description,omitempty"`
}

var languageCatalog = []LanguageOption{
	{Code: "eng", Name: "English", FileName: "eng.traineddata", SizeLabel: "~4 MB"},
	{Code: "osd", Name: "Orientation and script detection", FileName: "osd.traineddata", SizeLabel: "~10 MB", Description: "Required for the detect action."},
	{Code: "deu", Name: "German", FileName: "deu.traineddata", SizeLabel: "~3 MB"},
	{Code: "fra", Name: "French", FileName: "fra.traineddata", SizeLabel: "~3 MB"},
	{Code: "spa", Name: "Spanish", FileName: "spa.traineddata", SizeLabel: "~3 MB"},
	{Code: "por", Name: "Portuguese", FileName: "por.traineddata", SizeLabel: "~3 MB"},
	{Code: "ita", Name: "Italian", FileName: "ita.traineddata", SizeLabel: "~3 MB"},
	{Code: "rus", Name: "Russian", FileName: "rus.traineddata", SizeLabel: "~4 MB"},
	{Code: "ara", Name: "Arabic", FileName: "ara.traineddata", SizeLabel: "~2 MB"},
	{Code: "jpn", Name: "Japanese", FileName: "jpn.traineddata", SizeLabel: "~4 MB"},
	{Code: "chi_sim", Name: "Chinese (Simplified)", FileName: "chi_sim.traineddata", SizeLabel: "~3 MB"},
	{Code: "chi_tra", Name: "Chinese (Traditional)", FileName: "chi_tra.traineddata", SizeLabel: "~4 MB"},
	{Code: "kor", Name: "Korean", FileName: "kor.traineddata", SizeLabel: "~4 MB"},
	{Code: "hin", Name: "Hindi", FileName: "hin.traineddata", SizeLabel: "~2 MB"},
}

// Catalog returns the built-in language presets, marking entries already
// present in cacheDir.
func Catalog(cacheDir string) []LanguageOption {
	options := make([]LanguageOption, len(languageCatalog))
	copy(options, languageCatalog)

	if cacheDir == "" {
		return options
	}
	for i := range options {
		candidate := filepath.Join(cacheDir, options[i].FileName)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		options[i].Downloaded = true
		options[i].LocalPath = candidate
	}
	return options
}
