package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "audioscribe",
		Short:   "audioscribe - 音频转写与文本增强服务",
		Long:    "将音频解码、切片并转写为文本，然后去重、检测语言、翻译、润色、摘要并提取行动项。",
		Version: version,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML 配置文件路径（可选，环境变量优先）")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newTranscribeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
