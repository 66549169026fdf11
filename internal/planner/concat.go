package planner

import (
	"strings"

	"github.com/GCUGrayArea/clipforge/internal/filtergraph"
	"github.com/GCUGrayArea/clipforge/internal/workdir"
)

// writeConcatList writes a concat-demuxer list file ("-f concat -safe 0
// -i <list>") with each path single-quote escaped.
func writeConcatList(dir *workdir.Dir, name string, paths []string) (string, error) {
	var sb strings.Builder
	for _, p := range paths {
		sb.WriteString("file '")
		sb.WriteString(filtergraph.EscapeConcatPath(p))
		sb.WriteString("'\n")
	}
	listPath, err := dir.WriteFile(name, []byte(sb.String()))
	if err != nil {
		return "", errIOFailure(err)
	}
	return listPath, nil
}
