package render

import "log"

type PipelineInput struct {
	Width      int
	Height     int
	ClearColor [4]float32
	// passes to draw, all when empty
	Passes map[FilterKey]bool
}

func (in *PipelineInput) enabled(key FilterKey) bool {
	if len(in.Passes) == 0 {
		return true
	}
	return in.Passes[key]
}

// StandardPipeline builds skybox, opaque, indirect and transparent passes.
// Opaque color is resolved for indirect materials before they draw.
func StandardPipeline(builder *GraphBuilder, lists *PassLists, input PipelineInput) RenderTargetID {
	clearColor := input.ClearColor
	clearDepth := float32(1)

	mainColor := builder.CreateRenderTargetID(RenderTargetDescription{
		Name: "Main Color", Width: input.Width, Height: input.Height,
		Format: FORMAT_RGBA8, ClearColor: &clearColor,
	})
	skyboxDepth := builder.CreateRenderTargetID(RenderTargetDescription{
		Name: "Skybox Depth", Width: input.Width, Height: input.Height,
		Format: FORMAT_D24, ClearDepth: &clearDepth,
	})
	mainDepth := builder.CreateRenderTargetID(RenderTargetDescription{
		Name: "Main Depth", Width: input.Width, Height: input.Height,
		Format: FORMAT_D24, ClearDepth: &clearDepth,
	})

	drain := func(key FilterKey, late LateBindings) func(RenderPass, *GraphScope) {
		return func(pass RenderPass, scope *GraphScope) {
			l := lists.List(key)
			if !input.enabled(key) {
				l.Reset()
				return
			}
			l.Drain(pass, late)
		}
	}

	builder.PushPass(func(pass *GraphPass) {
		pass.SetDebugName("Skybox")
		pass.AttachRenderTargetID(SLOT_COLOR, mainColor)
		pass.AttachRenderTargetID(SLOT_DEPTH, skyboxDepth)
		pass.Exec(drain(PASS_SKYBOX, nil))
	})

	builder.PushPass(func(pass *GraphPass) {
		pass.SetDebugName("Main")
		pass.AttachRenderTargetID(SLOT_COLOR, mainColor)
		pass.AttachRenderTargetID(SLOT_DEPTH, mainDepth)
		pass.Exec(drain(PASS_OPAQUE, nil))
	})

	if lists.List(PASS_INDIRECT).Len() > 0 {
		opaqueScene, err := builder.ResolveToTexture(mainColor)
		if err != nil {
			log.Printf("[render] %v", err)
		}
		builder.PushPass(func(pass *GraphPass) {
			pass.SetDebugName("Indirect")
			pass.AttachRenderTargetID(SLOT_COLOR, mainColor)
			pass.AttachRenderTargetID(SLOT_DEPTH, mainDepth)
			pass.AttachResolveTexture(opaqueScene)
			pass.Exec(func(rp RenderPass, scope *GraphScope) {
				late := LateBindings{LATE_BINDING_OPAQUE_SCENE: scope.ResolveTexture(opaqueScene)}
				drain(PASS_INDIRECT, late)(rp, scope)
			})
		})
	}

	builder.PushPass(func(pass *GraphPass) {
		pass.SetDebugName("Transparent")
		pass.AttachRenderTargetID(SLOT_COLOR, mainColor)
		pass.AttachRenderTargetID(SLOT_DEPTH, mainDepth)
		pass.Exec(drain(PASS_TRANSPARENT, nil))
	})

	builder.Present(mainColor)
	return mainColor
}
