package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"formbreed/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// maxRecordBytes bounds one population line.
const maxRecordBytes = 1 << 20

func EncodeGenome(g model.Genome) ([]byte, error) {
	return json.Marshal(g)
}

func DecodeGenome(data []byte) (model.Genome, error) {
	var genome model.Genome
	if err := json.Unmarshal(data, &genome); err != nil {
		return model.Genome{}, err
	}
	if err := checkVersion(genome.VersionedRecord); err != nil {
		return model.Genome{}, err
	}
	return genome, nil
}

func EncodeWinners(w model.Winners) ([]byte, error) {
	return json.MarshalIndent(w, "", "  ")
}

func DecodeWinners(data []byte) (model.Winners, error) {
	var winners model.Winners
	if err := json.Unmarshal(data, &winners); err != nil {
		return model.Winners{}, err
	}
	if err := checkVersion(winners.VersionedRecord); err != nil {
		return model.Winners{}, err
	}
	return winners, nil
}

// WritePopulation writes one genome record per line in population order.
func WritePopulation(w io.Writer, population []model.Genome) error {
	bw := bufio.NewWriter(w)
	for _, g := range population {
		line, err := EncodeGenome(g)
		if err != nil {
			return fmt.Errorf("encode genome %s: %w", g.ID, err)
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadPopulation reads genome records written by WritePopulation. Blank
// lines are ignored.
func ReadPopulation(r io.Reader) ([]model.Genome, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	var (
		population []model.Genome
		line       int
	)
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		g, err := DecodeGenome(data)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		population = append(population, g)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return population, nil
}

// EncodePopulation is the single-blob form used by the sqlite backend.
func EncodePopulation(population []model.Genome) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePopulation(&buf, population); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodePopulation(data []byte) ([]model.Genome, error) {
	return ReadPopulation(bytes.NewReader(data))
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
