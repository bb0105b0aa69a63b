// shpload bulk-loads a shapefile component set into mongo without going
// through the HTTP upload path. Useful for seeding a full state extract.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tj/go-spin"

	"villagemap/config"
	"villagemap/ingest"
	"villagemap/shapefile"
	"villagemap/store"
)

func main() {
	dir := flag.String("dir", "", "directory containing the shapefile components")
	base := flag.String("base", "", "base name of the shapefile (defaults to the only .shp in the directory)")
	batch := flag.Int("batch", 0, "batch size override (0 uses config)")
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "usage: shpload -dir <directory> [-base <name>] [-batch <n>]")
		os.Exit(2)
	}

	baseName := *base
	if baseName == "" {
		var err error
		baseName, err = findBase(*dir)
		if err != nil {
			log.Fatalf("shpload: %v", err)
		}
	}

	// The ingestion pipeline deletes its input files when it finishes, so
	// work on a staged copy rather than the source directory.
	files, stage, err := stageComponents(*dir, baseName)
	if err != nil {
		log.Fatalf("shpload: %v", err)
	}
	defer os.RemoveAll(stage)

	cfg := config.Load()
	if *batch > 0 {
		cfg.BatchSize = *batch
	}

	client, db, err := config.ConnectMongo(cfg)
	if err != nil {
		log.Fatalf("shpload: %v", err)
	}
	defer client.Disconnect(context.Background())

	villageStore := store.NewVillageStore(db)
	if err := villageStore.EnsureIndexes(context.Background()); err != nil {
		log.Printf("shpload: %v", err)
	}

	s := spin.New()
	res := ingest.Run(context.Background(), files, villageStore, cfg.BatchSize, func(processed, errorCount int) {
		fmt.Printf("\r  %s %d processed, %d errors", s.Next(), processed, errorCount)
	})
	fmt.Println()

	fmt.Println(res.Message)
	for _, e := range res.Errors {
		fmt.Printf("  [%s] %s", e.Kind, e.Message)
		if e.Context != "" {
			fmt.Printf(" (%s)", e.Context)
		}
		fmt.Println()
	}
	if !res.Success {
		os.Exit(1)
	}
}

func findBase(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.shp"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("no .shp file found in %s", dir)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("multiple .shp files in %s, pass -base", dir)
	}
	name := filepath.Base(matches[0])
	return strings.TrimSuffix(name, filepath.Ext(name)), nil
}

func stageComponents(dir, base string) ([]shapefile.FileDescriptor, string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil || len(matches) == 0 {
		return nil, "", fmt.Errorf("no components named %s.* in %s", base, dir)
	}

	stage, err := os.MkdirTemp("", "shpload-")
	if err != nil {
		return nil, "", err
	}

	var files []shapefile.FileDescriptor
	for _, src := range matches {
		dst := filepath.Join(stage, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			os.RemoveAll(stage)
			return nil, "", fmt.Errorf("stage %s: %w", filepath.Base(src), err)
		}
		files = append(files, shapefile.FileDescriptor{Name: filepath.Base(src), Path: dst})
	}
	return files, stage, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
