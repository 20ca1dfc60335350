package keymap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"MusicSphere/logger"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk keymap:
//
//	inherit_defaults: true
//	bindings:
//	  next: ["ctrl+arrowright", "ctrl+j"]
//	  mute: ["ctrl+m"]
type fileFormat struct {
	InheritDefaults *bool               `yaml:"inherit_defaults"`
	Bindings        map[string][]string `yaml:"bindings"`
}

// Parse 解析 YAML 快捷键配置
func Parse(data []byte) (map[string]Action, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析快捷键配置失败: %w", err)
	}

	bindings := map[string]Action{}
	if f.InheritDefaults == nil || *f.InheritDefaults {
		bindings = DefaultBindings()
	}

	for name, chords := range f.Bindings {
		action := Action(name)
		if !knownActions[action] {
			return nil, fmt.Errorf("未知的动作 %q", name)
		}
		// 覆盖该动作原有的全部绑定
		for c, a := range bindings {
			if a == action {
				delete(bindings, c)
			}
		}
		for _, raw := range chords {
			chord, err := normalizeChord(raw)
			if err != nil {
				return nil, err
			}
			bindings[chord] = action
		}
	}
	return bindings, nil
}

// LoadFile reads path into k. A missing file keeps the defaults.
func (k *Keymap) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("[Keymap] 未找到快捷键配置，使用默认值", logger.String("path", path))
			return nil
		}
		return fmt.Errorf("读取快捷键配置失败: %w", err)
	}
	bindings, err := Parse(data)
	if err != nil {
		return err
	}
	k.Replace(bindings)
	logger.Info("[Keymap] 已加载快捷键配置",
		logger.String("path", path),
		logger.Int("count", len(bindings)))
	return nil
}

// Watch reloads path whenever it changes, until ctx is done. A broken file is
// logged and the previous bindings stay active.
func (k *Keymap) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听失败: %w", err)
	}
	// 监听目录，编辑器保存时常常是替换文件
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("监听目录失败: %w", err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := k.LoadFile(path); err != nil {
					logger.Warn("[Keymap] 重新加载快捷键配置失败", logger.ErrorField(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("[Keymap] 文件监听出错", logger.ErrorField(err))
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
