package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/yuqie6/st-leaderboard/internal/bootstrap"
	"github.com/yuqie6/st-leaderboard/internal/httpapi"
	"github.com/yuqie6/st-leaderboard/internal/pkg/buildinfo"
	"github.com/yuqie6/st-leaderboard/internal/pkg/config"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "leaderboard",
		Short:         "SpaceTraders 排行榜采集与查询",
		Long:          `定时采集 SpaceTraders 世界的 agent 与跃迁门建造数据，按周期聚合成排行榜并通过 HTTP 提供。`,
		Version:       buildinfo.Version + " (" + buildinfo.Commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")

	// 添加子命令
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tickCmd())
	rootCmd.AddCommand(resetsCmd())
	rootCmd.AddCommand(leaderboardCmd())
	rootCmd.AddCommand(allTimeCmd())
	rootCmd.AddCommand(agentsCmd())
	rootCmd.AddCommand(waypointsCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// serveCmd 前台运行 HTTP 服务与采集调度
func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务与定时采集",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			rt, err := bootstrap.NewAgentRuntime(ctx, cfgFile)
			if err != nil {
				return err
			}
			defer rt.Close()

			if listen == "" {
				listen = rt.Cfg.Server.BindAddress()
			}
			server, err := httpapi.Start(ctx, rt, httpapi.Options{ListenAddr: listen})
			if err != nil {
				return err
			}
			fmt.Printf("🚀 已启动: %s\n", server.BaseURL())

			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "监听地址，覆盖配置中的 server.host/port")

	return cmd
}

// tickCmd 手动执行一次采集
func tickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "立即执行一次采集",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := bootstrap.NewCore(cfgFile)
			if err != nil {
				return err
			}
			defer core.Close()
			if core.DB.SafeMode {
				return fmt.Errorf("数据库处于安全模式: %s", core.DB.MigrationError)
			}

			ctx := cmd.Context()
			res, err := core.Services.Collector.Tick(ctx)
			if err != nil {
				return err
			}
			if err := core.DB.Checkpoint(ctx); err != nil {
				slog.Warn("WAL checkpoint 失败", "error", err)
			}

			fmt.Printf("✅ 周期 %s 第 %d 分钟采集完成 (job %d)\n", res.ResetDate, res.EventTimeMinutes, res.JobRunID)
			fmt.Printf("   agent: %d  工地: %d  新发现: %d  耗时: %s\n",
				res.TrackedAgents, res.TrackedSites, len(res.Discovered), res.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

// resetsCmd 列出所有周期
func resetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resets",
		Short: "列出已采集的周期",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := bootstrap.NewCore(cfgFile)
			if err != nil {
				return err
			}
			defer core.Close()

			resets, err := core.Services.Query.ListResets(cmd.Context())
			if err != nil {
				return err
			}
			if len(resets) == 0 {
				fmt.Println("暂无数据")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RESET\tFIRST\tLATEST\tDURATION\tONGOING")
			for _, r := range resets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\n",
					r.Date,
					time.UnixMilli(r.FirstTs).UTC().Format(time.DateTime),
					humanize.Time(time.UnixMilli(r.LatestTs)),
					(time.Duration(r.DurationMinutes()) * time.Minute).String(),
					r.IsOngoing,
				)
			}
			return tw.Flush()
		},
	}
}

// leaderboardCmd 打印周期最新排行
func leaderboardCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard [reset-date]",
		Short: "查看周期排行（默认最新周期）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := bootstrap.NewCore(cfgFile)
			if err != nil {
				return err
			}
			defer core.Close()
			ctx := cmd.Context()

			date := ""
			if len(args) == 1 {
				date = args[0]
			} else {
				resets, err := core.Services.Query.ListResets(ctx)
				if err != nil {
					return err
				}
				if len(resets) == 0 {
					return errors.New("暂无周期数据，请先执行 tick")
				}
				date = resets[len(resets)-1].Date
			}

			reset, rows, err := core.Services.Query.Leaderboard(ctx, date)
			if err != nil {
				return err
			}
			fmt.Printf("🏆 周期 %s 排行 (%d 个 agent)\n\n", reset.Date, len(rows))

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "#\tAGENT\tCREDITS\tSHIPS\tJUMP GATE\t")
			for i, row := range rows {
				if limit > 0 && i >= limit {
					break
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t\n", i+1, row.AgentSymbol, humanize.Comma(row.Credits), row.ShipCount, row.JumpGateWaypointSymbol)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "最多显示条数，0 为全部")

	return cmd
}

// allTimeCmd 打印各周期前几名
func allTimeCmd() *cobra.Command {
	var top int64

	cmd := &cobra.Command{
		Use:   "all-time",
		Short: "查看各周期资金排名",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := bootstrap.NewCore(cfgFile)
			if err != nil {
				return err
			}
			defer core.Close()

			rows, err := core.Services.Query.AllTimePerformance(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RESET\tRANK\tAGENT\tCREDITS")
			for _, row := range rows {
				if top > 0 && row.Rank > top {
					continue
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", row.Reset, row.Rank, row.AgentSymbol, humanize.Comma(row.Credits))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int64Var(&top, "top", 3, "每个周期显示前几名，0 为全部")

	return cmd
}

// agentsCmd 分页拉取远端全部 agent
func agentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "分页拉取远端全部 agent 并统计",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := bootstrap.NewCore(cfgFile)
			if err != nil {
				return err
			}
			defer core.Close()

			start := time.Now()
			agents, err := core.Clients.Remote.ListAllAgents(cmd.Context(), core.Cfg.Collector.Concurrency)
			if err != nil {
				return err
			}

			headquarters := make(map[string]struct{}, len(agents))
			var credits int64
			for _, a := range agents {
				headquarters[a.Headquarters] = struct{}{}
				credits += a.Credits
			}
			fmt.Printf("👥 agent: %s  总部: %s  总资金: %s  耗时: %s\n",
				humanize.Comma(int64(len(agents))),
				humanize.Comma(int64(len(headquarters))),
				humanize.Comma(credits),
				time.Since(start).Round(time.Millisecond),
			)
			return nil
		},
	}
}

// waypointsCmd 分页拉取星系内全部航点，按类型计数
func waypointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "waypoints <system>",
		Short: "分页拉取星系内全部航点并按类型统计",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := bootstrap.NewCore(cfgFile)
			if err != nil {
				return err
			}
			defer core.Close()

			waypoints, err := core.Clients.Remote.ListSystemWaypoints(cmd.Context(), args[0], core.Cfg.Collector.Concurrency)
			if err != nil {
				return err
			}

			counts := make(map[string]int)
			var building int
			for _, wp := range waypoints {
				counts[wp.Type]++
				if wp.IsUnderConstruction {
					building++
				}
			}
			types := make([]string, 0, len(counts))
			for t := range counts {
				types = append(types, t)
			}
			sort.Strings(types)

			fmt.Printf("🛰  %s 航点: %s  建造中: %d\n", args[0], humanize.Comma(int64(len(waypoints))), building)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tCOUNT")
			for _, t := range types {
				fmt.Fprintf(w, "%s\t%d\n", t, counts[t])
			}
			return w.Flush()
		},
	}
}

// configCmd 配置相关子命令
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置文件管理",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "写入默认配置文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("配置文件已存在: %s（使用 --force 覆盖）", path)
			}
			if err := config.WriteFile(path, config.Default()); err != nil {
				return err
			}
			fmt.Printf("✅ 已写入 %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "覆盖已存在的配置文件")

	cmd.AddCommand(initCmd)
	return cmd
}
