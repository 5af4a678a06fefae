package audio

// Processor defines the audio operations the compilation stage depends on.
type Processor interface {
	// GetAudioDuration returns the decoded duration of a file in seconds.
	GetAudioDuration(inputFile string) (float32, error)
	// ConcatWAV joins the input files, in order, into a single output file.
	ConcatWAV(inputFiles []string, outputFile string) error
}
