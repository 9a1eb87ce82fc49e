//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/engine"
	"github.com/equipdraw/equipdraw/internal/geometry"
)

var (
	eng      *engine.Engine
	onChange js.Value
)

func main() {
	eng = engine.NewEngine(engine.WithListener(notify))

	api := js.Global().Get("Object").New()

	// --- Commands (host → engine) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("onChange", js.FuncOf(setOnChange))
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("setScrollOffset", js.FuncOf(setScrollOffset))
	api.Set("addElement", js.FuncOf(addElement))

	api.Set("selectElement", js.FuncOf(selectElement))
	api.Set("addToSelection", js.FuncOf(addToSelection))
	api.Set("toggleSelection", js.FuncOf(toggleSelection))
	api.Set("clearSelection", js.FuncOf(clearSelection))
	api.Set("deleteSelected", js.FuncOf(deleteSelected))
	api.Set("lockSelected", js.FuncOf(lockSelected))
	api.Set("unlockSelected", js.FuncOf(unlockSelected))

	api.Set("startRubberband", js.FuncOf(startRubberband))
	api.Set("updateRubberband", js.FuncOf(updateRubberband))
	api.Set("finishRubberband", js.FuncOf(finishRubberband))
	api.Set("startResize", js.FuncOf(startResize))
	api.Set("updateResize", js.FuncOf(updateResize))
	api.Set("endResize", js.FuncOf(endResize))
	api.Set("startMove", js.FuncOf(startMove))
	api.Set("updateMove", js.FuncOf(updateMove))
	api.Set("endMove", js.FuncOf(endMove))
	api.Set("startPan", js.FuncOf(startPan))
	api.Set("updatePan", js.FuncOf(updatePan))
	api.Set("endPan", js.FuncOf(endPan))

	api.Set("copy", js.FuncOf(copySelection))
	api.Set("paste", js.FuncOf(paste))
	api.Set("duplicate", js.FuncOf(duplicate))
	api.Set("bringForward", js.FuncOf(bringForward))
	api.Set("sendBackward", js.FuncOf(sendBackward))
	api.Set("bringToFront", js.FuncOf(bringToFront))
	api.Set("sendToBack", js.FuncOf(sendToBack))

	api.Set("startTextEditing", js.FuncOf(startTextEditing))
	api.Set("commitTextEditing", js.FuncOf(commitTextEditing))
	api.Set("cancelTextEditing", js.FuncOf(cancelTextEditing))

	// --- Queries (host ← engine) ---
	api.Set("getState", js.FuncOf(getState))
	api.Set("elementAt", js.FuncOf(elementAt))

	js.Global().Set("equipdrawEngine", api)
	js.Global().Set("equipdrawWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func notify(s engine.State) {
	if onChange.Type() != js.TypeFunction {
		return
	}
	onChange.Invoke(js.ValueOf(marshal(s)))
}

func marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func errorResult(msg string) any {
	return js.ValueOf(map[string]any{"error": msg})
}

func point(args []js.Value, i int) (geometry.Point, bool) {
	if len(args) < i+2 {
		return geometry.Point{}, false
	}
	return geometry.Pt(args[i].Float(), args[i+1].Float()), true
}

func ids(v []string) any {
	out := make([]any, len(v))
	for i, id := range v {
		out[i] = id
	}
	return js.ValueOf(out)
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("missing document JSON")
	}
	var c document.Canvas
	if err := json.Unmarshal([]byte(args[0].String()), &c); err != nil {
		return errorResult(err.Error())
	}
	c.Normalize()
	eng.Load(c.Elements)
	eng.SetScrollOffset(c.Viewport.Scroll)
	return js.ValueOf(map[string]any{"ok": true})
}

func loadSampleDocument(this js.Value, args []js.Value) any {
	c := document.NewSampleCanvas("cnv_sample")
	eng.Load(c.Elements)
	eng.SetScrollOffset(c.Viewport.Scroll)
	return js.ValueOf(map[string]any{"ok": true})
}

func setOnChange(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		onChange = js.Undefined()
		return nil
	}
	onChange = args[0]
	return nil
}

func setTool(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	eng.SetTool(engine.Tool(args[0].String()))
	return nil
}

func setScrollOffset(this js.Value, args []js.Value) any {
	if p, ok := point(args, 0); ok {
		eng.SetScrollOffset(p)
	}
	return nil
}

func addElement(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("missing element JSON")
	}
	var el document.Element
	if err := json.Unmarshal([]byte(args[0].String()), &el); err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(eng.AddElement(el))
}

func selectElement(this js.Value, args []js.Value) any {
	if len(args) > 0 {
		eng.SelectElement(args[0].String())
	}
	return nil
}

func addToSelection(this js.Value, args []js.Value) any {
	if len(args) > 0 {
		eng.AddToSelection(args[0].String())
	}
	return nil
}

func toggleSelection(this js.Value, args []js.Value) any {
	if len(args) > 0 {
		eng.ToggleSelection(args[0].String())
	}
	return nil
}

func clearSelection(this js.Value, args []js.Value) any {
	eng.ClearAllSelections()
	return nil
}

func deleteSelected(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.DeleteSelected())
}

func lockSelected(this js.Value, args []js.Value) any {
	eng.LockSelectedElements()
	return nil
}

func unlockSelected(this js.Value, args []js.Value) any {
	eng.UnlockSelectedElements()
	return nil
}

func startRubberband(this js.Value, args []js.Value) any {
	p, ok := point(args, 0)
	if !ok {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.StartRubberbandSelection(p))
}

func updateRubberband(this js.Value, args []js.Value) any {
	if p, ok := point(args, 0); ok {
		eng.UpdateRubberbandSelection(p)
	}
	return nil
}

func finishRubberband(this js.Value, args []js.Value) any {
	eng.FinishRubberbandSelection()
	return nil
}

// startResize(handle, x, y)
func startResize(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return js.ValueOf(false)
	}
	h, err := engine.ParseHandle(args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	p, _ := point(args, 1)
	return js.ValueOf(eng.StartResize(h, p))
}

// updateResize(x, y, keepAspect)
func updateResize(this js.Value, args []js.Value) any {
	p, ok := point(args, 0)
	if !ok {
		return nil
	}
	keep := len(args) > 2 && args[2].Truthy()
	eng.UpdateResize(p, keep)
	return nil
}

func endResize(this js.Value, args []js.Value) any {
	eng.EndResize()
	return nil
}

func startMove(this js.Value, args []js.Value) any {
	p, ok := point(args, 0)
	if !ok {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.StartMove(p))
}

func updateMove(this js.Value, args []js.Value) any {
	if p, ok := point(args, 0); ok {
		eng.UpdateMove(p)
	}
	return nil
}

func endMove(this js.Value, args []js.Value) any {
	eng.EndMove()
	return nil
}

// startPan(x, y, zoom)
func startPan(this js.Value, args []js.Value) any {
	p, ok := point(args, 0)
	if !ok {
		return js.ValueOf(false)
	}
	zoom := 1.0
	if len(args) > 2 {
		zoom = args[2].Float()
	}
	return js.ValueOf(eng.StartPan(p, zoom))
}

func updatePan(this js.Value, args []js.Value) any {
	p, ok := point(args, 0)
	if !ok {
		return nil
	}
	s := eng.UpdatePan(p)
	return js.ValueOf(map[string]any{"x": s.X, "y": s.Y})
}

func endPan(this js.Value, args []js.Value) any {
	eng.EndPan()
	return nil
}

func copySelection(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.CopyToClipboard())
}

func paste(this js.Value, args []js.Value) any {
	return ids(eng.PasteFromClipboard())
}

func duplicate(this js.Value, args []js.Value) any {
	return ids(eng.Duplicate())
}

func bringForward(this js.Value, args []js.Value) any {
	eng.BringForward()
	return nil
}

func sendBackward(this js.Value, args []js.Value) any {
	eng.SendBackward()
	return nil
}

func bringToFront(this js.Value, args []js.Value) any {
	eng.BringToFront()
	return nil
}

func sendToBack(this js.Value, args []js.Value) any {
	eng.SendToBack()
	return nil
}

func startTextEditing(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.TryStartTextEditing(args[0].String()))
}

func commitTextEditing(this js.Value, args []js.Value) any {
	text := ""
	if len(args) > 0 {
		text = args[0].String()
	}
	eng.CommitTextEditing(text)
	return nil
}

func cancelTextEditing(this js.Value, args []js.Value) any {
	eng.CancelTextEditing()
	return nil
}

// --- Query Handlers ---

func getState(this js.Value, args []js.Value) any {
	return js.ValueOf(marshal(eng.State()))
}

func elementAt(this js.Value, args []js.Value) any {
	p, ok := point(args, 0)
	if !ok {
		return js.ValueOf("")
	}
	el, found := eng.ElementAt(p)
	if !found {
		return js.ValueOf("")
	}
	return js.ValueOf(el.ID)
}
