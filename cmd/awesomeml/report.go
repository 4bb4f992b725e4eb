package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"awesomeml/internal/data"
	"awesomeml/internal/evaluation"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

func printMetrics(w io.Writer, metrics *evaluation.ClassificationMetrics[int], decode func(int) string) {
	fmt.Fprint(w, metrics.FormatMetrics())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "class\tprecision\trecall\tf1\tsupport")
	for _, class := range metrics.Classes {
		cm := metrics.PerClassMetrics[class]
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%d\n", decode(class), cm.Precision, cm.Recall, cm.F1Score, cm.Support)
	}
	tw.Flush()
}

func printCV(w io.Writer, result *evaluation.CVResult) {
	for i, score := range result.Scores {
		fmt.Fprintf(w, "  fold %d: %.4f\n", i+1, score)
	}
	fmt.Fprintf(w, "CV accuracy: %s (took %v)\n",
		cyan(fmt.Sprintf("%.4f +/- %.4f", result.Mean, result.Std)), result.Took)
}

func printDatasetStats(w io.Writer, stats data.DatasetStats) {
	fmt.Fprintf(w, "Samples: %d, features: %d\n", stats.Samples, stats.Features)

	fmt.Fprintln(w, "Class distribution:")
	for _, label := range slices.Sorted(maps.Keys(stats.ClassDistribution)) {
		count := stats.ClassDistribution[label]
		fmt.Fprintf(w, "  %s: %d (%.1f%%)\n", label, count, 100*float64(count)/float64(stats.Samples))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "feature\tmin\tmax\tmean")
	for _, fs := range stats.FeatureStats {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", fs.Name, fs.Min.String(), fs.Max.String(), fs.Mean.StringFixed(4))
	}
	tw.Flush()
}
