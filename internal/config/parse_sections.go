package config

import "cuelang.org/go/cue"

func parseAppSection(v cue.Value, r *Release) error {
	if err := optString(v, "app.name", &r.App.Name); err != nil {
		return err
	}
	if err := optString(v, "app.package", &r.App.Package); err != nil {
		return err
	}
	return optString(v, "app.versionPackage", &r.App.VersionPackage)
}

func parseFrontendSection(v cue.Value, r *Release) error {
	if err := optString(v, "frontend.root", &r.Frontend.Root); err != nil {
		return err
	}
	if err := optString(v, "frontend.bundler", &r.Frontend.Bundler); err != nil {
		return err
	}
	if err := optString(v, "frontend.script", &r.Frontend.Script); err != nil {
		return err
	}
	if err := optString(v, "frontend.dist", &r.Frontend.Dist); err != nil {
		return err
	}
	return optString(v, "embed.target", &r.Embed.Target)
}

func parseBackendSection(v cue.Value, r *Release) error {
	b := &r.Backend
	if err := optBool(v, "backend.enabled", &b.Enabled); err != nil {
		return err
	}
	if err := optString(v, "backend.mode", &b.Mode); err != nil {
		return err
	}
	if err := optString(v, "backend.root", &b.Root); err != nil {
		return err
	}
	if err := optString(v, "backend.outputDir", &b.OutputDir); err != nil {
		return err
	}
	if err := optString(v, "backend.crossCompiler", &b.CrossCompiler); err != nil {
		return err
	}
	if err := optStringList(v, "backend.os", &b.OS); err != nil {
		return err
	}
	return optStringList(v, "backend.arch", &b.Arch)
}

func parseCompressSection(v cue.Value, r *Release) error {
	if err := optBool(v, "compress.enabled", &r.Compress.Enabled); err != nil {
		return err
	}
	if err := optString(v, "compress.program", &r.Compress.Program); err != nil {
		return err
	}
	return optString(v, "compress.select", &r.Compress.Select)
}

// parseMiscSections extracts vcs, manifest, metrics and log settings.
func parseMiscSections(v cue.Value, r *Release) error {
	if err := optString(v, "vcs.source", &r.VCS.Source); err != nil {
		return err
	}
	if err := optBool(v, "manifest.enabled", &r.Manifest.Enabled); err != nil {
		return err
	}
	if err := optString(v, "metrics.textfile", &r.Metrics.Textfile); err != nil {
		return err
	}
	if err := optString(v, "log.level", &r.Log.Level); err != nil {
		return err
	}
	return optString(v, "log.format", &r.Log.Format)
}
