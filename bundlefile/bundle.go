// Package bundlefile reads and writes the gzip-compressed tar bundle
// format: manifest.json, audit.jsonl, evidence/* and attachments/*
// blobs, and checksums.json. No tar or gzip library appears anywhere in
// the retrieved example pack, so both are built on archive/tar and
// compress/gzip from the standard library.
package bundlefile

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hostsurvey/hostsurvey/model"
)

// Write serializes bundle as a gzip-compressed tar file at path:
// manifest.json, audit.jsonl, one entry per evidence blob (keyed by its
// BundlePath, under evidence/ or attachments/), then checksums.json.
func Write(bundle *model.Bundle, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bundle file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	manifestJSON, err := json.MarshalIndent(bundle.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := addFile(tw, "manifest.json", manifestJSON); err != nil {
		return err
	}

	var auditLines []string
	for _, e := range bundle.Audit {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal audit entry: %w", err)
		}
		auditLines = append(auditLines, string(data))
	}
	if err := addFile(tw, "audit.jsonl", []byte(strings.Join(auditLines, "\n"))); err != nil {
		return err
	}

	for path, evidence := range bundle.Evidence {
		if evidence.Content == nil {
			continue
		}
		if err := addFile(tw, path, evidence.Content); err != nil {
			return err
		}
	}

	checksumsJSON, err := json.MarshalIndent(bundle.Checksums, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checksums: %w", err)
	}
	if err := addFile(tw, "checksums.json", checksumsJSON); err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar writer: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}
	return nil
}

func addFile(tw *tar.Writer, name string, content []byte) error {
	header := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header for %s: %w", name, err)
	}
	if _, err := tw.Write(content); err != nil {
		return fmt.Errorf("write tar body for %s: %w", name, err)
	}
	return nil
}

// Read deserializes a gzip-compressed tar bundle from path. Evidence
// entries under evidence/ and attachments/ are reconstructed with a
// freshly computed content hash; the original Evidence metadata (type,
// source command, redaction state) is only fully recoverable from the
// manifest's evidence_ref pointers, matching the reference reader.
func Read(path string) (*model.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle file: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)

	var manifest *model.Manifest
	var audit []model.AuditEntry
	evidence := make(map[string]*model.Evidence)
	checksums := make(map[string]string)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read tar entry %s: %w", hdr.Name, err)
		}

		switch {
		case hdr.Name == "manifest.json":
			var m model.Manifest
			if err := json.Unmarshal(content, &m); err != nil {
				return nil, fmt.Errorf("unmarshal manifest: %w", err)
			}
			manifest = &m
		case hdr.Name == "audit.jsonl":
			scanner := bufio.NewScanner(bytes.NewReader(content))
			scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				var e model.AuditEntry
				if err := json.Unmarshal([]byte(line), &e); err != nil {
					return nil, fmt.Errorf("unmarshal audit entry: %w", err)
				}
				audit = append(audit, e)
			}
		case hdr.Name == "checksums.json":
			if err := json.Unmarshal(content, &checksums); err != nil {
				return nil, fmt.Errorf("unmarshal checksums: %w", err)
			}
		case strings.HasPrefix(hdr.Name, "evidence/"), strings.HasPrefix(hdr.Name, "attachments/"):
			evidence[hdr.Name] = &model.Evidence{
				ID:           hdr.Name,
				EvidenceType: model.EvidenceCommandOutput,
				SizeBytes:    uint64(len(content)),
				ContentHash:  model.Sha256Bytes(content),
				BundlePath:   hdr.Name,
				Content:      content,
			}
		}
	}

	if manifest == nil {
		return nil, fmt.Errorf("bundle missing manifest.json")
	}

	return &model.Bundle{
		Manifest:  *manifest,
		Audit:     audit,
		Evidence:  evidence,
		Checksums: checksums,
	}, nil
}
