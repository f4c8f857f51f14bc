package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"decision-ai/internal/domain"
	"decision-ai/internal/ml"
)

const (
	ModelFile   = "model.json"
	ScalerFile  = "scaler.json"
	ResultsFile = "results.json"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// Store lee y escribe los artefactos del entrenamiento en un directorio.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) SaveModel(m *ml.Forest) error {
	return s.write(ModelFile, m)
}

func (s *Store) LoadModel() (*ml.Forest, error) {
	var m ml.Forest
	if err := s.read(ModelFile, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) SaveScaler(sc *ml.StandardScaler) error {
	return s.write(ScalerFile, sc)
}

func (s *Store) LoadScaler() (*ml.StandardScaler, error) {
	var sc ml.StandardScaler
	if err := s.read(ScalerFile, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Store) SaveResults(r domain.Results) error {
	return s.write(ResultsFile, r)
}

func (s *Store) LoadResults() (domain.Results, error) {
	var r domain.Results
	if err := s.read(ResultsFile, &r); err != nil {
		return domain.Results{}, err
	}
	return r, nil
}

// Version identifica una escritura concreta de results.json.
type Version struct {
	ModTime int64
	Size    int64
}

// Stat exige que el modelo y los resultados existan y devuelve la versión de results.json.
func (s *Store) Stat() (Version, error) {
	if _, err := s.stat(ModelFile); err != nil {
		return Version{}, err
	}
	info, err := s.stat(ResultsFile)
	if err != nil {
		return Version{}, err
	}
	return Version{ModTime: info.ModTime().UnixNano(), Size: info.Size()}, nil
}

func (s *Store) stat(name string) (fs.FileInfo, error) {
	path := filepath.Join(s.Dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrArtifactNotFound, path, err)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return info, nil
}

// write serializa a un archivo temporal y lo renombra, para que el dashboard nunca lea un archivo a medias.
func (s *Store) write(name string, v any) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.Dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func (s *Store) read(name string, v any) error {
	path := filepath.Join(s.Dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s: %w", ErrArtifactNotFound, path, err)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
