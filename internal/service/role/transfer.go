package role

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/domain/event"
	"github.com/alanyang/role-master/internal/metrics"
)

// ExportRoles wraps the requested roles in a transfer envelope, in the order
// given. Unknown ids are left out.
func (s *Service) ExportRoles(ctx context.Context, ids []string) (domainrole.Export, error) {
	doc, err := s.GetConfig(ctx)
	if err != nil {
		return domainrole.Export{}, fmt.Errorf("export roles: %w", err)
	}
	roles := make([]domainrole.Role, 0, len(ids))
	for _, id := range ids {
		if r, ok := doc.FindRole(id); ok {
			roles = append(roles, r)
		}
	}
	return domainrole.NewExport(roles, s.now()), nil
}

// ImportRoles stores every role of the envelope under a fresh id as a custom
// role with fresh timestamps. Roles that are not valid are skipped. A storage
// fault stops the import; the count of roles already written is still returned.
func (s *Service) ImportRoles(ctx context.Context, exp domainrole.Export) (int, error) {
	count := 0
	defer func() {
		if count > 0 {
			s.record(ctx, "import", event.New(event.TypeRolesImported, ""))
		}
	}()

	for i, src := range exp.Roles {
		r := src.Clone()
		r.ID = GenerateID()
		r.IsCustom = true
		now := s.now().UTC()
		r.CreatedAt = now
		r.UpdatedAt = now
		if !r.Valid() {
			metrics.RolesImportedTotal.WithLabelValues("skipped").Inc()
			slog.WarnContext(ctx, "skipping invalid role in import", "index", i, "name", src.Name)
			continue
		}

		_, err := s.mutate(ctx, "import roles", func(doc *domainrole.UserConfig) (bool, error) {
			doc.Upsert(r)
			return true, nil
		})
		if err != nil {
			return count, err
		}
		count++
		metrics.RolesImportedTotal.WithLabelValues("imported").Inc()
	}
	return count, nil
}

// ImportFile reads a JSON or YAML envelope (chosen by extension) and imports it.
// A malformed envelope writes nothing.
func (s *Service) ImportFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.notifier.Error(ctx, fmt.Sprintf("导入失败: %v", err))
		return 0, fmt.Errorf("import file: %w", err)
	}
	n, err := s.ImportData(ctx, data, isYAML(path))
	if err != nil {
		return n, fmt.Errorf("import file %s: %w", path, err)
	}
	return n, nil
}

// ImportData decodes an envelope from raw bytes and imports it, reporting the
// outcome through the notifier.
func (s *Service) ImportData(ctx context.Context, data []byte, asYAML bool) (int, error) {
	if asYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			s.notifier.Error(ctx, fmt.Sprintf("导入失败: %v", err))
			return 0, fmt.Errorf("%w: %v", domainrole.ErrInvalidEnvelope, err)
		}
		data = converted
	}

	exp, skipped, err := domainrole.DecodeExport(data)
	if err != nil {
		s.notifier.Error(ctx, fmt.Sprintf("导入失败: %v", err))
		return 0, err
	}
	for _, sk := range skipped {
		metrics.RolesImportedTotal.WithLabelValues("skipped").Inc()
		slog.WarnContext(ctx, "skipping invalid role in import", "index", sk.Index, "error", sk.Err)
	}

	n, err := s.ImportRoles(ctx, exp)
	if err != nil {
		s.notifier.Error(ctx, fmt.Sprintf("导入失败: %v", err))
		return n, err
	}

	dropped := len(skipped) + len(exp.Roles) - n
	switch {
	case n == 0:
		s.notifier.Warn(ctx, fmt.Sprintf("未导入任何角色，已跳过 %d 个无效角色", dropped))
	case dropped > 0:
		s.notifier.Warn(ctx, fmt.Sprintf("成功导入 %d 个角色，已跳过 %d 个无效角色", n, dropped))
	default:
		s.notifier.Info(ctx, fmt.Sprintf("成功导入 %d 个角色！", n))
	}
	return n, nil
}

// ExportFile writes the envelope for ids to path: YAML for .yaml/.yml,
// otherwise JSON indented by two spaces. Returns the number of roles written.
func (s *Service) ExportFile(ctx context.Context, ids []string, path string) (int, error) {
	exp, err := s.ExportRoles(ctx, ids)
	if err != nil {
		return 0, err
	}
	if len(exp.Roles) == 0 {
		s.notifier.Warn(ctx, "没有可导出的角色")
		return 0, nil
	}

	data, err := EncodeExport(exp, isYAML(path))
	if err != nil {
		s.notifier.Error(ctx, fmt.Sprintf("导出失败: %v", err))
		return 0, fmt.Errorf("export file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.notifier.Error(ctx, fmt.Sprintf("导出失败: %v", err))
		return 0, fmt.Errorf("export file: %w", err)
	}
	s.notifier.Info(ctx, fmt.Sprintf("成功导出 %d 个角色！", len(exp.Roles)))
	return len(exp.Roles), nil
}

// EncodeExport renders an envelope as indented JSON, or as YAML with the same
// camelCase keys.
func EncodeExport(exp domainrole.Export, asYAML bool) ([]byte, error) {
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil || !asYAML {
		return data, err
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return yaml.Marshal(tree)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// yamlToJSON re-encodes a YAML document so it can go through the JSON decoder
// and its validation.
func yamlToJSON(data []byte) ([]byte, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}
