package models

// Status reports whether a models directory carries everything the
// pipeline needs to run: detector, recognizer, and dictionary are required;
// the classifier is optional, since angle classification is simply
// disabled when its model is absent.
type Status struct {
	IsReady           bool
	Version           string
	ModelsDir         string
	Missing           []string
	ClassifierPresent bool
	Err               error
}

// PrepareModels validates that every required model file is present under
// modelsDir, without downloading or modifying anything; fetching models is
// an operator concern handled outside this pipeline. IsReady is true when
// detection, recognition, and the dictionary exist; a missing classifier is
// reported via ClassifierPresent rather than failing readiness.
func PrepareModels(modelsDir string) Status {
	dir := Dir(modelsDir)
	st := Status{Version: ModelVersion, ModelsDir: dir}

	required := []struct {
		name string
		path string
	}{
		{"detection", DetectionPath(dir)},
		{"recognition", RecognitionPath(dir)},
		{"dictionary", DictionaryPath(dir)},
	}
	for _, c := range required {
		if err := ValidateExists(c.path); err != nil {
			st.Missing = append(st.Missing, c.name)
		}
	}

	st.ClassifierPresent = ValidateExists(ClassifierPath(dir)) == nil
	if !st.ClassifierPresent {
		st.Missing = append(st.Missing, "classification (optional)")
	}

	st.IsReady = len(st.Missing) == 0 || (len(st.Missing) == 1 && !st.ClassifierPresent)
	return st
}
