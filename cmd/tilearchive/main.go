package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/tilequad/tilearchive/tilearchive"
)

type showCmd struct {
	Location string `arg:"" help:"Path or bucket URL to the archive, e.g. file:// or s3://bucket."`
}

func (c *showCmd) Run(logger *log.Logger) error {
	bucketURL, key, err := tilearchive.NormalizeLocation(c.Location)
	if err != nil {
		return err
	}
	ctx := context.Background()
	provider, err := tilearchive.OpenRangeProvider(ctx, bucketURL, key)
	if err != nil {
		return err
	}
	defer provider.Close()

	reader := tilearchive.NewReader(provider, tilearchive.DefaultCacheCapacity)
	header, err := reader.Header(ctx)
	if err != nil {
		return err
	}
	metadata, err := reader.Metadata(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("cubic: %v\n", header.Cubic)
	fmt.Printf("zoom range: %d-%d\n", header.MinZoom, header.MaxZoom)
	fmt.Printf("addressed tiles: %s\n", humanize.Comma(int64(header.AddressedTilesCount)))
	fmt.Printf("tile entries: %s\n", humanize.Comma(int64(header.TileEntriesCount)))
	fmt.Printf("tile contents: %s\n", humanize.Comma(int64(header.TileContentsCount)))
	fmt.Printf("tile data: %s\n", humanize.Bytes(header.TileDataLength))
	fmt.Printf("clustered: %v\n", header.Clustered)
	fmt.Printf("internal compression: %s\n", header.InternalCompression)
	fmt.Printf("tile compression: %s\n", header.TileCompression)
	var metadataMap map[string]interface{}
	if json.Unmarshal(metadata, &metadataMap) == nil {
		pretty, _ := json.MarshalIndent(metadataMap, "", "  ")
		fmt.Printf("metadata: %s\n", pretty)
	}
	return nil
}

type verifyCmd struct {
	Location string `arg:"" help:"Path or bucket URL to the archive."`
}

func (c *verifyCmd) Run(logger *log.Logger) error {
	bucketURL, key, err := tilearchive.NormalizeLocation(c.Location)
	if err != nil {
		return err
	}
	ctx := context.Background()
	provider, err := tilearchive.OpenRangeProvider(ctx, bucketURL, key)
	if err != nil {
		return err
	}
	defer provider.Close()

	var archiveSize uint64
	if f, ok := provider.(tilearchive.FileRangeProvider); ok {
		if info, err := f.File.Stat(); err == nil {
			archiveSize = uint64(info.Size())
		}
	}

	if err := tilearchive.Verify(ctx, provider, archiveSize); err != nil {
		return err
	}
	logger.Println("archive is valid")
	return nil
}

type importMbtilesCmd struct {
	Input  string `arg:"" help:"Input MBTiles sqlite database."`
	Output string `arg:"" help:"Output archive path."`
	Quiet  bool   `help:"Suppress progress output."`
}

func (c *importMbtilesCmd) Run(logger *log.Logger) error {
	sink, err := tilearchive.NewFileSink(c.Output)
	if err != nil {
		return err
	}

	writer, err := tilearchive.NewWriter(sink, false, tilearchive.CompressionZstd, tilearchive.CompressionGzip, tilearchive.TileTypePbf)
	if err != nil {
		return err
	}

	imported, err := tilearchive.ImportMBTiles(writer, c.Input, !c.Quiet)
	if err != nil {
		return err
	}

	if _, err := writer.Commit(map[string]interface{}{}); err != nil {
		return err
	}
	logger.Printf("imported %d tiles into %s", imported, c.Output)
	return sink.Close()
}

type extractCmd struct {
	Input  string `arg:"" help:"Input archive."`
	Output string `arg:"" help:"Output archive restricted to the bounding box."`
	Face   uint8  `default:"0" help:"Cubic face to extract from."`
	Z      uint8  `arg:"" help:"Reference zoom level of the box."`
	MinX   uint32 `arg:""`
	MinY   uint32 `arg:""`
	MaxX   uint32 `arg:""`
	MaxY   uint32 `arg:""`
}

func (c *extractCmd) Run(logger *log.Logger) error {
	ctx := context.Background()
	bucketURL, key, err := tilearchive.NormalizeLocation(c.Input)
	if err != nil {
		return err
	}
	provider, err := tilearchive.OpenRangeProvider(ctx, bucketURL, key)
	if err != nil {
		return err
	}
	defer provider.Close()
	reader := tilearchive.NewReader(provider, tilearchive.DefaultCacheCapacity)

	srcHeader, err := reader.Header(ctx)
	if err != nil {
		return err
	}

	sink, err := tilearchive.NewFileSink(c.Output)
	if err != nil {
		return err
	}
	writer, err := tilearchive.NewWriter(sink, srcHeader.Cubic, srcHeader.InternalCompression, srcHeader.TileCompression, srcHeader.TileType)
	if err != nil {
		return err
	}

	copied, err := tilearchive.ExtractBox(ctx, reader, writer, tilearchive.Face(c.Face), c.Z, c.MinX, c.MinY, c.MaxX, c.MaxY, true)
	if err != nil {
		return err
	}
	if _, err := writer.Commit(map[string]interface{}{}); err != nil {
		return err
	}
	logger.Printf("extracted %d tiles into %s", copied, c.Output)
	return sink.Close()
}

type serveCmd struct {
	Location  string `arg:"" help:"Directory or bucket URL containing archives, e.g. file:// or s3://bucket."`
	Port      string `default:"8080" help:"Port to serve on."`
	Cors      string `help:"CORS allowed origin value."`
	CacheSize int    `default:"64" help:"Per-archive directory cache capacity, in entries."`
	PublicURL string `help:"Public base URL, required for TileJSON responses."`
}

func (c *serveCmd) Run(logger *log.Logger) error {
	base := strings.TrimSuffix(c.Location, "/")
	resolve := func(name string) (string, string, error) {
		return base, name, nil
	}
	server := tilearchive.NewServer(resolve, logger, c.CacheSize, c.Cors, c.PublicURL)

	logger.Printf("serving %s on :%s", c.Location, c.Port)
	return http.ListenAndServe(":"+c.Port, server.Handler())
}

var cli struct {
	Show    showCmd          `cmd:"" help:"Print an archive's header and metadata."`
	Verify  verifyCmd        `cmd:"" help:"Check an archive's structural invariants."`
	Import  importMbtilesCmd `cmd:"" name:"import-mbtiles" help:"Import an MBTiles database as a planar archive."`
	Extract extractCmd       `cmd:"" name:"extract-box" help:"Copy a coordinate box of tiles into a new archive."`
	Serve   serveCmd         `cmd:"" help:"Run an HTTP tile server over a directory of archives."`
}

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	ctx := kong.Parse(&cli, kong.Name("tilearchive"), kong.Description("Read, write and serve quadtree tile archives."))
	err := ctx.Run(logger)
	ctx.FatalIfErrorf(err)
}
