package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jgoulah/energyplot/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the weather response cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached weather responses",
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached weather response",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openCache() (*cache.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cache.New(cfg.GetCacheDir()), nil
}

func runCacheList(cmd *cobra.Command, args []string) error {
	store, err := openCache()
	if err != nil {
		return err
	}

	entries, err := store.Entries()
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Printf("No cached responses in %s\n", store.Dir())
		return nil
	}

	fmt.Printf("\nCache %s:\n", store.Dir())
	fmt.Println("------------------------------------------------------------------")
	fmt.Printf("%-32s  %10s  %s\n", "Key", "Size", "Written")
	fmt.Println("------------------------------------------------------------------")

	var total uint64
	for _, e := range entries {
		fmt.Printf("%-32s  %10s  %s\n", e.Key, humanize.Bytes(uint64(e.Size)), humanize.Time(e.ModTime))
		total += uint64(e.Size)
	}

	fmt.Println("------------------------------------------------------------------")
	fmt.Printf("Total: %s (%d entries)\n", humanize.Bytes(total), len(entries))
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, err := openCache()
	if err != nil {
		return err
	}

	n, err := store.Clear()
	if err != nil {
		return err
	}

	fmt.Printf("✓ Removed %d cached responses from %s\n", n, store.Dir())
	return nil
}
