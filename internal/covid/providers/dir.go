package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/i474232898/covid19-stats/internal/covid"
)

// DirProvider reads the upstream CSV files from a local directory, e.g. a
// checkout of the JHU CSSE repository.
type DirProvider struct {
	dir string
}

// NewDirProvider creates a provider reading from dir.
func NewDirProvider(dir string) *DirProvider {
	return &DirProvider{dir: dir}
}

func (p *DirProvider) Name() string {
	return "dir:" + p.dir
}

// Fetch reads every table file. The global confirmed file is required; other
// missing files leave their table nil.
func (p *DirProvider) Fetch(ctx context.Context) (covid.RawDataset, error) {
	var ds covid.RawDataset
	for _, tf := range tableFiles {
		if err := ctx.Err(); err != nil {
			return covid.RawDataset{}, err
		}

		table, err := p.readTable(tf.file)
		if os.IsNotExist(err) && tf.name != covid.TableGlobalConfirmed {
			continue
		}
		if err != nil {
			return covid.RawDataset{}, fmt.Errorf("%s: %w", tf.name, err)
		}
		tf.set(&ds, table)
	}
	return ds, nil
}

func (p *DirProvider) readTable(file string) (*covid.RawTable, error) {
	f, err := os.Open(filepath.Join(p.dir, file))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}
